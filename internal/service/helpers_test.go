package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/require"
)

// services wires the three facades over one database, sharing one lock set.
type services struct {
	db       *sql.DB
	repos    *repository.Repos
	users    UserService
	projects ProjectService
	tasks    TaskService
}

func setupServices(t *testing.T) *services {
	t.Helper()
	return newServices(testutil.NewTestDB(t), nil)
}

// newServices builds the facades; uow defaults to a real SQLite unit of work.
func newServices(database *sql.DB, uow db.UnitOfWork) *services {
	if uow == nil {
		uow = testutil.NewTestUoW(database)
	}
	repos := repository.NewSQLiteRepos(database)
	locks := NewProjectLocks()
	return &services{
		db:       database,
		repos:    repos,
		users:    NewUserService(repos.Users, uow),
		projects: NewProjectService(repos, uow, locks),
		tasks:    NewTaskService(repos, uow, locks),
	}
}

func (s *services) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := s.users.Register(context.Background(), name+"@example.com", name)
	require.NoError(t, err)
	return u
}

// project creates a project owned by owner with the given extra members.
func (s *services) project(t *testing.T, owner *domain.User, members ...*domain.User) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p, err := s.projects.CreateProject(ctx, owner.ID, CreateProjectInput{Name: "Project " + owner.DisplayName})
	require.NoError(t, err)
	for _, m := range members {
		p, err = s.projects.AddMember(ctx, owner.ID, p.ID, m.ID)
		require.NoError(t, err)
	}
	return p
}

func (s *services) task(t *testing.T, actor *domain.User, projectID, title string) *domain.Task {
	t.Helper()
	task, err := s.tasks.CreateTask(context.Background(), actor.ID, CreateTaskInput{ProjectID: projectID, Title: title})
	require.NoError(t, err)
	return task
}

// moveTo walks task along the forward path TODO -> IN_PROGRESS -> IN_REVIEW
// -> DONE until it reaches status, or cancels it.
func (s *services) moveTo(t *testing.T, actor *domain.User, taskID string, status domain.TaskStatus) {
	t.Helper()
	path := []domain.TaskStatus{domain.StatusInProgress, domain.StatusInReview, domain.StatusDone}
	if status == domain.StatusCancelled {
		path = []domain.TaskStatus{domain.StatusCancelled}
	}
	for _, next := range path {
		_, err := s.tasks.UpdateTask(context.Background(), actor.ID, taskID, domain.TaskPatch{Status: &next})
		require.NoError(t, err)
		if next == status {
			return
		}
	}
}

func ptr[T any](v T) *T { return &v }
