package domain

import "strings"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectArchived  ProjectStatus = "ARCHIVED"
	ProjectCompleted ProjectStatus = "COMPLETED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectArchived, ProjectCompleted:
		return true
	}
	return false
}

// TaskStatus is the superset of the backend and frontend enums; CANCELLED is
// included even though older clients never send it.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
	StatusCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses lists every status in lifecycle order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s TaskStatus) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities; higher is more urgent. Unknown priorities rank 0.
func (p Priority) Rank() int {
	for i, q := range Priorities {
		if q == p {
			return i + 1
		}
	}
	return 0
}

// ParseTaskStatus accepts any casing and "-" or " " as word separators.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(normalizeEnum(s))
	return st, st.Valid()
}

// ParsePriority accepts any casing.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(normalizeEnum(s))
	return p, p.Valid()
}

// ParseProjectStatus accepts any casing.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	st := ProjectStatus(normalizeEnum(s))
	return st, st.Valid()
}

func normalizeEnum(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Action is an operation a user may attempt against a project.
type Action string

const (
	ActionRead          Action = "read"
	ActionCreateTask    Action = "create_task"
	ActionUpdateTask    Action = "update_task"
	ActionDeleteTask    Action = "delete_task"
	ActionComment       Action = "comment"
	ActionManageMembers Action = "manage_members"
	ActionUpdateProject Action = "update_project"
	ActionDeleteProject Action = "delete_project"
)

// memberActions are the actions granted to every non-owner member.
// ActionDeleteTask is granted separately, only for tasks the member created.
var memberActions = map[Action]bool{
	ActionRead:       true,
	ActionCreateTask: true,
	ActionUpdateTask: true,
	ActionComment:    true,
}
