package repository

import (
	"context"

	"github.com/alexanderramin/cybertask/internal/domain"
)

// TaskFilter narrows ListByProject. Zero values match everything.
type TaskFilter struct {
	Status     domain.TaskStatus
	AssigneeID string
	Tag        string
}

type UserRepo interface {
	Put(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// ProjectRepo stores projects together with their member sets. Put writes
// the project row and reconciles project_members with p.MemberIDs; it is the
// only way membership changes.
type ProjectRepo interface {
	Put(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type TaskRepo interface {
	Put(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string, f TaskFilter) ([]*domain.Task, error)
	// UnassignUser clears assignee_id on every task of the project assigned
	// to userID and returns the number of tasks changed.
	UnassignUser(ctx context.Context, projectID, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type DependencyRepo interface {
	Create(ctx context.Context, d *domain.Dependency) error
	Delete(ctx context.Context, taskID, dependsOnID string) error
	ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error)
	// DeleteForTask removes every edge referencing taskID in either direction.
	DeleteForTask(ctx context.Context, taskID string) (int, error)
}

type CommentRepo interface {
	Create(ctx context.Context, c *domain.Comment) error
	ListByTask(ctx context.Context, taskID string) ([]*domain.Comment, error)
	DeleteForTask(ctx context.Context, taskID string) (int, error)
}
