package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCascadeDelete_ProjectToTasks verifies that deleting a project removes
// its tasks, their edges and comments, and its membership rows.
func TestCascadeDelete_ProjectToTasks(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(db)
	taskRepo := NewSQLiteTaskRepo(db)
	depRepo := NewSQLiteDependencyRepo(db)
	commentRepo := NewSQLiteCommentRepo(db)

	owner, p := seedProject(t, db)
	ts := seedTasks(t, taskRepo, p, "A", "B")
	require.NoError(t, depRepo.Create(ctx, dep(ts[0].ID, ts[1].ID)))
	require.NoError(t, commentRepo.Create(ctx, testutil.NewTestComment(ts[0].ID, owner.ID, "note")))

	require.NoError(t, projRepo.Delete(ctx, p.ID))

	_, err := taskRepo.GetByID(ctx, ts[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "task should be cascade-deleted with its project")

	var edges int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM task_dependencies`).Scan(&edges))
	assert.Zero(t, edges)

	comments, err := commentRepo.ListByTask(ctx, ts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	var members int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM project_members WHERE project_id = ?`, p.ID).Scan(&members))
	assert.Zero(t, members)
}

// TestCascadeDelete_TaskToEdgesAndComments verifies task -> edges/comments cascade.
func TestCascadeDelete_TaskToEdgesAndComments(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	taskRepo := NewSQLiteTaskRepo(db)
	depRepo := NewSQLiteDependencyRepo(db)
	commentRepo := NewSQLiteCommentRepo(db)

	owner, p := seedProject(t, db)
	ts := seedTasks(t, taskRepo, p, "A", "B", "C")
	require.NoError(t, depRepo.Create(ctx, dep(ts[0].ID, ts[1].ID)))
	require.NoError(t, depRepo.Create(ctx, dep(ts[1].ID, ts[2].ID)))
	require.NoError(t, commentRepo.Create(ctx, testutil.NewTestComment(ts[1].ID, owner.ID, "note")))

	require.NoError(t, taskRepo.Delete(ctx, ts[1].ID))

	deps, err := depRepo.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, deps, "edges in both directions should go with the task")

	comments, err := commentRepo.ListByTask(ctx, ts[1].ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

// TestDelete_UserWithMembershipRefused verifies a user row cannot be removed
// while a project membership still references it, so memberships never
// vanish behind the unassign cascade.
func TestDelete_UserWithMembershipRefused(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	owner, p := seedProject(t, db)
	member := seedUsers(t, db, "member")[0]
	p.AddMember(member.ID)
	require.NoError(t, NewSQLiteProjectRepo(db).Put(ctx, p))

	for _, id := range []string{owner.ID, member.ID} {
		_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		require.Error(t, err)
		assert.Contains(t, strings.ToLower(err.Error()), "foreign key constraint failed")
	}

	got, err := NewSQLiteProjectRepo(db).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{owner.ID, member.ID}, got.MemberIDs)
}
