package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTasks(t *testing.T, repo *SQLiteTaskRepo, p *domain.Project, titles ...string) []*domain.Task {
	t.Helper()
	tasks := make([]*domain.Task, 0, len(titles))
	for _, title := range titles {
		task := testutil.NewTestTask(p.ID, p.OwnerID, title)
		require.NoError(t, repo.Put(context.Background(), task))
		tasks = append(tasks, task)
	}
	return tasks
}

func dep(taskID, dependsOnID string) *domain.Dependency {
	return &domain.Dependency{TaskID: taskID, DependsOnID: dependsOnID, CreatedAt: time.Now().UTC()}
}

func TestDependencyRepo_CreateAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(db)
	repo := NewSQLiteDependencyRepo(db)
	ctx := context.Background()

	_, p := seedProject(t, db)
	ts := seedTasks(t, taskRepo, p, "A", "B", "C")
	a, b, c := ts[0], ts[1], ts[2]

	require.NoError(t, repo.Create(ctx, dep(a.ID, b.ID)))
	require.NoError(t, repo.Create(ctx, dep(b.ID, c.ID)))

	all, err := repo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, []string{all[0].TaskID, all[1].TaskID})
}

func TestDependencyRepo_DuplicateRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(db)
	repo := NewSQLiteDependencyRepo(db)
	ctx := context.Background()

	_, p := seedProject(t, db)
	ts := seedTasks(t, taskRepo, p, "A", "B")

	require.NoError(t, repo.Create(ctx, dep(ts[0].ID, ts[1].ID)))
	err := repo.Create(ctx, dep(ts[0].ID, ts[1].ID))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestDependencyRepo_SelfLoopRejectedBySchema(t *testing.T) {
	db := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(db)
	repo := NewSQLiteDependencyRepo(db)

	_, p := seedProject(t, db)
	a := seedTasks(t, taskRepo, p, "A")[0]

	assert.Error(t, repo.Create(context.Background(), dep(a.ID, a.ID)))
}

func TestDependencyRepo_ListByProjectScopesToProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(db)
	repo := NewSQLiteDependencyRepo(db)
	ctx := context.Background()

	_, p1 := seedProject(t, db)
	_, p2 := seedProject(t, db)
	t1 := seedTasks(t, taskRepo, p1, "A", "B")
	t2 := seedTasks(t, taskRepo, p2, "X", "Y")
	require.NoError(t, repo.Create(ctx, dep(t1[0].ID, t1[1].ID)))
	require.NoError(t, repo.Create(ctx, dep(t2[0].ID, t2[1].ID)))

	deps, err := repo.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, t1[0].ID, deps[0].TaskID)
}

func TestDependencyRepo_DeleteAndDeleteForTask(t *testing.T) {
	db := testutil.NewTestDB(t)
	taskRepo := NewSQLiteTaskRepo(db)
	repo := NewSQLiteDependencyRepo(db)
	ctx := context.Background()

	_, p := seedProject(t, db)
	ts := seedTasks(t, taskRepo, p, "A", "B", "C")
	a, b, c := ts[0], ts[1], ts[2]
	require.NoError(t, repo.Create(ctx, dep(a.ID, b.ID)))
	require.NoError(t, repo.Create(ctx, dep(b.ID, c.ID)))
	require.NoError(t, repo.Create(ctx, dep(a.ID, c.ID)))

	require.NoError(t, repo.Delete(ctx, a.ID, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID, c.ID), domain.ErrNotFound)

	n, err := repo.DeleteForTask(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
