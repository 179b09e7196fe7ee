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

func TestCommentRepo_CreateAndListOldestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCommentRepo(db)
	ctx := context.Background()

	owner, p := seedProject(t, db)
	task := seedTasks(t, NewSQLiteTaskRepo(db), p, "T")[0]

	first := testutil.NewTestComment(task.ID, owner.ID, "first")
	second := testutil.NewTestComment(task.ID, owner.ID, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	comments, err := repo.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	assert.Equal(t, owner.ID, comments[0].AuthorID)
}

func TestCommentRepo_UnknownTaskRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCommentRepo(db)

	owner, _ := seedProject(t, db)
	err := repo.Create(context.Background(), testutil.NewTestComment("missing", owner.ID, "hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestCommentRepo_DeleteForTask(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCommentRepo(db)
	ctx := context.Background()

	owner, p := seedProject(t, db)
	ts := seedTasks(t, NewSQLiteTaskRepo(db), p, "A", "B")
	require.NoError(t, repo.Create(ctx, testutil.NewTestComment(ts[0].ID, owner.ID, "one")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestComment(ts[0].ID, owner.ID, "two")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestComment(ts[1].ID, owner.ID, "other")))

	n, err := repo.DeleteForTask(ctx, ts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := repo.ListByTask(ctx, ts[1].ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
