package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/google/uuid"
)

// People maps normalized emails to user ids for everyone the bundle names.
type People map[string]string

// Resolve returns the user id for email, or "" when unknown.
func (p People) Resolve(email string) string {
	return p[domain.NormalizeEmail(email)]
}

// ConvertTask builds a domain task from a validated TaskImport. The task is
// created in TODO and walked to the requested status along allowed
// transitions, so imported tasks obey the same lifecycle as live ones.
func ConvertTask(ti TaskImport, projectID, defaultCreatorID string, people People, now time.Time) (*domain.Task, error) {
	priority := domain.PriorityMedium
	if ti.Priority != "" {
		p, ok := domain.ParsePriority(ti.Priority)
		if !ok {
			return nil, domain.Violation("task %q: invalid priority %q", ti.Ref, ti.Priority)
		}
		priority = p
	}

	creatorID := defaultCreatorID
	if ti.Creator != "" {
		if creatorID = people.Resolve(ti.Creator); creatorID == "" {
			return nil, domain.NewError(domain.ErrNotAMember, "task creator is not a project member",
				"ref", ti.Ref, "email", ti.Creator)
		}
	}

	t := &domain.Task{
		ID:             uuid.New().String(),
		ProjectID:      projectID,
		CreatorID:      creatorID,
		Title:          strings.TrimSpace(ti.Title),
		Description:    ti.Description,
		Status:         domain.StatusTodo,
		Priority:       priority,
		Tags:           domain.NormalizeTags(ti.Tags),
		EstimatedHours: ti.EstimatedHours,
		ActualHours:    ti.ActualHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ti.DueDate != nil {
		due, err := time.Parse(dateLayout, *ti.DueDate)
		if err != nil {
			return nil, domain.Violation("task %q: invalid due_date %q", ti.Ref, *ti.DueDate)
		}
		t.DueDate = &due
	}
	if ti.Assignee != "" {
		assigneeID := people.Resolve(ti.Assignee)
		if assigneeID == "" {
			return nil, domain.NewError(domain.ErrNotAMember, "task assignee is not a project member",
				"ref", ti.Ref, "email", ti.Assignee)
		}
		if err := t.Assign(assigneeID, now); err != nil {
			return nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("task %q: %w", ti.Ref, err)
	}

	if ti.Status == "" {
		return t, nil
	}
	target, ok := domain.ParseTaskStatus(ti.Status)
	if !ok {
		return nil, domain.Violation("task %q: invalid status %q", ti.Ref, ti.Status)
	}
	path, err := StatusPath(domain.StatusTodo, target)
	if err != nil {
		return nil, err
	}
	for _, next := range path {
		if err := t.TransitionTo(next, now); err != nil {
			return nil, fmt.Errorf("task %q: %w", ti.Ref, err)
		}
	}
	return t, nil
}

// StatusPath returns the shortest sequence of statuses leading from one
// status to another. The start status itself is not included.
func StatusPath(from, to domain.TaskStatus) ([]domain.TaskStatus, error) {
	if from == to {
		return nil, nil
	}
	prev := map[domain.TaskStatus]domain.TaskStatus{from: from}
	queue := []domain.TaskStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range domain.NextStatuses(cur) {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				return unwindPath(prev, from, to), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, domain.NewError(domain.ErrInvalidTransition, "status not reachable",
		"from", string(from), "to", string(to))
}

func unwindPath(prev map[domain.TaskStatus]domain.TaskStatus, from, to domain.TaskStatus) []domain.TaskStatus {
	var path []domain.TaskStatus
	for s := to; s != from; s = prev[s] {
		path = append([]domain.TaskStatus{s}, path...)
	}
	return path
}
