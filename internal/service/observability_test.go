package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.events = append(r.events, e)
}

func TestUseCaseObserver_ReportsOutcome(t *testing.T) {
	database := testutil.NewTestDB(t)
	repos := repository.NewSQLiteRepos(database)
	uow := testutil.NewTestUoW(database)
	rec := &recordingObserver{}
	users := NewUserService(repos.Users, uow, rec)
	ctx := context.Background()

	_, err := users.Register(ctx, "a@example.com", "A")
	require.NoError(t, err)
	_, err = users.Register(ctx, "A@example.com", "A again")
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	require.Len(t, rec.events, 2)
	assert.Equal(t, "register-user", rec.events[0].Name)
	assert.True(t, rec.events[0].Success)
	assert.False(t, rec.events[1].Success)
	assert.ErrorIs(t, rec.events[1].Err, domain.ErrConstraintViolation)
}

func TestLogUseCaseObserver_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	obs := NewSlogUseCaseObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	database := testutil.NewTestDB(t)
	repos := repository.NewSQLiteRepos(database)
	uow := testutil.NewTestUoW(database)
	locks := NewProjectLocks()
	users := NewUserService(repos.Users, uow)
	projects := NewProjectService(repos, uow, locks, obs)
	ctx := context.Background()

	owner, err := users.Register(ctx, "owner@example.com", "Owner")
	require.NoError(t, err)
	_, err = projects.CreateProject(ctx, owner.ID, CreateProjectInput{Name: "Logged"})
	require.NoError(t, err)
	_, err = projects.CreateProject(ctx, owner.ID, CreateProjectInput{Name: " "})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=service_use_case")
	assert.Contains(t, out, "use_case=create-project")
	assert.Contains(t, out, "success=true")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error_kind=ConstraintViolation")
	assert.Contains(t, out, "project_id=")
	assert.NotContains(t, out, "level=ERROR")
}

func TestLogUseCaseObserver_InfrastructureFailureIsError(t *testing.T) {
	var buf bytes.Buffer
	obs := NewSlogUseCaseObserver(slog.New(slog.NewTextHandler(&buf, nil)))

	finishUseCase(context.Background(), obs, "delete-task", time.Now(),
		map[string]any{"task_id": "t1", "actor_id": "u1"}, errors.New("disk I/O error"))

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, `error="disk I/O error"`)
	assert.NotContains(t, out, "error_kind")
	assert.Less(t, strings.Index(out, "actor_id=u1"), strings.Index(out, "task_id=t1"))
}

func TestUseCaseObserverOrNoop_FansOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}

	assert.Equal(t, NoopUseCaseObserver{}, useCaseObserverOrNoop(nil))
	assert.Same(t, a, useCaseObserverOrNoop([]UseCaseObserver{nil, a}))

	obs := useCaseObserverOrNoop([]UseCaseObserver{a, nil, b})
	finishUseCase(context.Background(), obs, "assign-task", time.Now(), nil, nil)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestNewSlogUseCaseObserver_NilLoggerIsNoop(t *testing.T) {
	assert.Equal(t, NoopUseCaseObserver{}, NewSlogUseCaseObserver(nil))
}
