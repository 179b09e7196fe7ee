package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/importer"
	"github.com/alexanderramin/cybertask/internal/repository"
)

type UserService interface {
	Register(ctx context.Context, email, displayName string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// CreateProjectInput carries the caller-supplied fields of a new project.
// The acting user becomes its owner.
type CreateProjectInput struct {
	Name        string
	Description string
}

// ProjectPatch is a partial project update; nil fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *domain.ProjectStatus
}

type ProjectService interface {
	CreateProject(ctx context.Context, actorID string, in CreateProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, actorID, projectID string) (*domain.Project, error)
	// ListProjects returns the projects actorID belongs to.
	ListProjects(ctx context.Context, actorID string) ([]*domain.Project, error)
	UpdateProject(ctx context.Context, actorID, projectID string, patch ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, actorID, projectID string) error
	AddMember(ctx context.Context, actorID, projectID, userID string) (*domain.Project, error)
	// RemoveMember drops userID and unassigns every task of the project
	// assigned to them.
	RemoveMember(ctx context.Context, actorID, projectID, userID string) (*RemoveMemberResult, error)
	TransferOwnership(ctx context.Context, actorID, projectID, newOwnerID string) (*domain.Project, error)
	Authorize(ctx context.Context, userID, projectID string, action domain.Action) error
}

// RemoveMemberResult reports the project after a removal and how many tasks
// lost their assignee.
type RemoveMemberResult struct {
	Project         *domain.Project
	UnassignedTasks int
}

// CreateTaskInput carries the caller-supplied fields of a new task. The
// acting user becomes its creator; new tasks start in TODO.
type CreateTaskInput struct {
	ProjectID      string
	Title          string
	Description    string
	Priority       domain.Priority
	AssigneeID     *string
	DueDate        *time.Time
	Tags           []string
	EstimatedHours *float64
	ActualHours    *float64
}

// TaskDependencies lists the direct edges of a task. Blockers are the
// dependencies that are neither DONE nor CANCELLED.
type TaskDependencies struct {
	TaskID     string
	DependsOn  []*domain.Task
	Dependents []*domain.Task
	Blockers   []*domain.Task
}

type TaskService interface {
	CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, actorID, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, actorID, projectID string, filter repository.TaskFilter) ([]*domain.Task, error)
	// ListTasksInOrder returns the project's tasks so that every task comes
	// after the tasks it depends on.
	ListTasksInOrder(ctx context.Context, actorID, projectID string) ([]*domain.Task, error)
	UpdateTask(ctx context.Context, actorID, taskID string, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, actorID, taskID string) error
	Assign(ctx context.Context, actorID, taskID, userID string) (*domain.Task, error)
	Unassign(ctx context.Context, actorID, taskID string) (*domain.Task, error)
	AddDependency(ctx context.Context, actorID, taskID, dependsOnID string) error
	RemoveDependency(ctx context.Context, actorID, taskID, dependsOnID string) error
	ListDependencies(ctx context.Context, actorID, taskID string) (*TaskDependencies, error)
	AddComment(ctx context.Context, actorID, taskID, content string) (*domain.Comment, error)
	ListComments(ctx context.Context, actorID, taskID string) ([]*domain.Comment, error)
}

// ImportResult holds the outcome of a bundle import.
type ImportResult struct {
	Project         *domain.Project
	UserCount       int
	MemberCount     int
	TaskCount       int
	DependencyCount int
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	ImportBundle(ctx context.Context, bundle *importer.Bundle) (*ImportResult, error)
}
