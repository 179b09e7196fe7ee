package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

type Task struct {
	ID          string
	ProjectID   string
	CreatorID   string
	AssigneeID  *string
	Title       string
	Description string
	Status      TaskStatus
	Priority    Priority

	DueDate        *time.Time
	Tags           []string
	EstimatedHours *float64
	ActualHours    *float64

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// allowedTransitions is the status machine. CANCELLED is reachable from
// every non-terminal status and is added by canTransition.
var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusTodo:       {StatusInProgress},
	StatusInProgress: {StatusInReview},
	StatusInReview:   {StatusDone, StatusInProgress},
}

// CanTransition reports whether from -> to is an edge of the status machine.
func CanTransition(from, to TaskStatus) bool {
	if from.Terminal() || !to.Valid() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s TaskStatus) []TaskStatus {
	if s.Terminal() {
		return nil
	}
	next := append([]TaskStatus(nil), allowedTransitions[s]...)
	return append(next, StatusCancelled)
}

// IsTerminal reports whether the task is DONE or CANCELLED.
func (t *Task) IsTerminal() bool {
	return t.Status.Terminal()
}

// Validate checks the fields a task must carry before it is persisted.
// Membership of the assignee is checked by the caller, which has the
// project at hand.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return Violation("task title is required")
	}
	if t.ProjectID == "" {
		return Violation("task project is required")
	}
	if t.CreatorID == "" {
		return Violation("task creator is required")
	}
	if !t.Status.Valid() {
		return Violation("invalid task status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return Violation("invalid task priority %q", t.Priority)
	}
	if err := validateHours("estimated_hours", t.EstimatedHours); err != nil {
		return err
	}
	return validateHours("actual_hours", t.ActualHours)
}

// TransitionTo moves the task along the status machine. Requesting the
// current status is a no-op. Entering DONE stamps CompletedAt.
func (t *Task) TransitionTo(to TaskStatus, now time.Time) error {
	if !to.Valid() {
		return Violation("invalid task status %q", to)
	}
	if to == t.Status {
		return nil
	}
	if !CanTransition(t.Status, to) {
		return NewError(ErrInvalidTransition, "status change not allowed",
			"task_id", t.ID, "from", string(t.Status), "to", string(to))
	}
	t.Status = to
	if to == StatusDone {
		completed := now
		t.CompletedAt = &completed
	}
	t.UpdatedAt = now
	return nil
}

// Assign sets the assignee, replacing any prior one. Membership is checked
// by the caller.
func (t *Task) Assign(userID string, now time.Time) error {
	if err := t.ensureMutable(); err != nil {
		return err
	}
	if userID == "" {
		return Violation("assignee is required")
	}
	id := userID
	t.AssigneeID = &id
	t.UpdatedAt = now
	return nil
}

// Unassign clears the assignee. It is a no-op when nobody is assigned.
func (t *Task) Unassign(now time.Time) error {
	if t.AssigneeID == nil {
		return nil
	}
	if err := t.ensureMutable(); err != nil {
		return err
	}
	t.AssigneeID = nil
	t.UpdatedAt = now
	return nil
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// SetPriority changes the priority of a non-terminal task.
func (t *Task) SetPriority(p Priority, now time.Time) error {
	if err := t.ensureMutable(); err != nil {
		return err
	}
	if !p.Valid() {
		return Violation("invalid task priority %q", p)
	}
	t.Priority = p
	t.UpdatedAt = now
	return nil
}

// SetTags replaces the tag set of a non-terminal task.
func (t *Task) SetTags(tags []string, now time.Time) error {
	if err := t.ensureMutable(); err != nil {
		return err
	}
	t.Tags = NormalizeTags(tags)
	t.UpdatedAt = now
	return nil
}

// ApplyPatch applies every non-nil field of p. Field edits run first and the
// status change last, so a single patch may edit an IN_REVIEW task and close
// it. On error the task may be partially modified; callers work on a copy.
func (t *Task) ApplyPatch(p TaskPatch, now time.Time) error {
	if p.ClearAssignee && t.AssigneeID == nil {
		p.ClearAssignee = false
	}
	if t.IsTerminal() {
		if p.Status != nil && *p.Status != t.Status {
			return NewError(ErrInvalidTransition, "task is in a terminal status",
				"task_id", t.ID, "from", string(t.Status), "to", string(*p.Status))
		}
		if p.HasFieldChanges() {
			return t.ensureMutable()
		}
		return nil
	}

	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return Violation("task title is required")
		}
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		if err := t.SetPriority(*p.Priority, now); err != nil {
			return err
		}
	}
	if p.Tags != nil {
		if err := t.SetTags(*p.Tags, now); err != nil {
			return err
		}
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.EstimatedHours != nil {
		if err := validateHours("estimated_hours", p.EstimatedHours); err != nil {
			return err
		}
		t.EstimatedHours = copyFloat(p.EstimatedHours)
	}
	if p.ActualHours != nil {
		if err := validateHours("actual_hours", p.ActualHours); err != nil {
			return err
		}
		t.ActualHours = copyFloat(p.ActualHours)
	}
	t.UpdatedAt = now

	if p.Status != nil {
		return t.TransitionTo(*p.Status, now)
	}
	return nil
}

// Clone returns a deep copy so a failed patch never touches the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		c.AssigneeID = &id
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	c.EstimatedHours = copyFloat(t.EstimatedHours)
	c.ActualHours = copyFloat(t.ActualHours)
	c.Tags = append([]string(nil), t.Tags...)
	return &c
}

func (t *Task) ensureMutable() error {
	if t.IsTerminal() {
		return NewError(ErrTaskImmutable, "task is in a terminal status",
			"task_id", t.ID, "status", string(t.Status))
	}
	return nil
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *TaskStatus
	Priority       *Priority
	Tags           *[]string
	DueDate        *time.Time
	ClearDueDate   bool
	EstimatedHours *float64
	ActualHours    *float64

	// AssigneeID and ClearAssignee are resolved by the service, which checks
	// membership before calling Assign/Unassign.
	AssigneeID    *string
	ClearAssignee bool
}

// HasFieldChanges reports whether the patch edits anything besides status.
func (p TaskPatch) HasFieldChanges() bool {
	return p.Title != nil || p.Description != nil || p.Priority != nil ||
		p.Tags != nil || p.DueDate != nil || p.ClearDueDate ||
		p.EstimatedHours != nil || p.ActualHours != nil ||
		p.AssigneeID != nil || p.ClearAssignee
}

// SortByPriority orders tasks most urgent first, keeping the existing order
// among equal priorities.
func SortByPriority(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Rank() > tasks[j].Priority.Rank()
	})
}

// NormalizeTags trims, drops empties, de-duplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func validateHours(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return Violation("%s must be a finite number", field)
	}
	if *v < 0 {
		return Violation("%s must be non-negative", field)
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
