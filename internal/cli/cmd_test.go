package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	formatter.SetColor(false)
	os.Exit(m.Run())
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	t.Setenv(ActorEnv, "")
	database := testutil.NewTestDB(t)
	repos := repository.NewSQLiteRepos(database)
	uow := testutil.NewTestUoW(database)
	locks := service.NewProjectLocks()

	return &App{
		Users:    service.NewUserService(repos.Users, uow),
		Projects: service.NewProjectService(repos, uow, locks),
		Tasks:    service.NewTaskService(repos, uow, locks),
		Import:   service.NewImportService(uow),
		Now:      func() time.Time { return time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC) },
	}
}

// executeCmd runs a cobra command and captures its output.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, out)
	return out
}

// seedTeam registers Olivia and Marco and creates a project owned by Olivia
// with Marco as a member.
func seedTeam(t *testing.T, app *App) (projectID string) {
	t.Helper()
	mustRun(t, app, "user", "add", "--email", "olivia@example.com", "--name", "Olivia")
	mustRun(t, app, "user", "add", "--email", "marco@example.com", "--name", "Marco")
	mustRun(t, app, "--as", "olivia@example.com", "project", "add", "--name", "Website", "--description", "Relaunch")

	owner, err := app.Users.GetUserByEmail(context.Background(), "olivia@example.com")
	require.NoError(t, err)
	projects, err := app.Projects.ListProjects(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	mustRun(t, app, "--as", "olivia@example.com", "member", "add", projects[0].ID[:8], "marco@example.com")
	return projects[0].ID
}

func taskByTitle(t *testing.T, app *App, projectID, title string) *domain.Task {
	t.Helper()
	owner, err := app.Users.GetUserByEmail(context.Background(), "olivia@example.com")
	require.NoError(t, err)
	tasks, err := app.Tasks.ListTasks(context.Background(), owner.ID, projectID, repository.TaskFilter{})
	require.NoError(t, err)
	for _, task := range tasks {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("task %q not found", title)
	return nil
}

func TestUserAddAndList(t *testing.T) {
	app := testApp(t)

	out := mustRun(t, app, "user", "add", "--email", "Olivia@Example.com", "--name", "Olivia")
	assert.Contains(t, out, "Registered Olivia <olivia@example.com>")

	_, err := executeCmd(t, app, "user", "add", "--email", "olivia@example.com", "--name", "Again")
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	out = mustRun(t, app, "user", "list")
	assert.Contains(t, out, "olivia@example.com")
}

func TestActorIsRequired(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "project", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no acting user")

	_, err = executeCmd(t, app, "--as", "ghost@example.com", "project", "list")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActorFromEnvironment(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "user", "add", "--email", "olivia@example.com", "--name", "Olivia")
	t.Setenv(ActorEnv, "olivia@example.com")

	out := mustRun(t, app, "project", "add", "--name", "From env")
	assert.Contains(t, out, "Created project From env")
}

func TestProjectCommands(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	short := projectID[:8]

	out := mustRun(t, app, "--as", "marco@example.com", "project", "list")
	assert.Contains(t, out, "Website")
	assert.Contains(t, out, "Olivia")

	out = mustRun(t, app, "--as", "olivia@example.com", "project", "show", short)
	assert.Contains(t, out, "WEBSITE")
	assert.Contains(t, out, "Relaunch")
	assert.Contains(t, out, "Marco")

	_, err := executeCmd(t, app, "--as", "marco@example.com", "project", "update", short, "--name", "Hijack")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	out = mustRun(t, app, "--as", "olivia@example.com", "project", "update", short, "--status", "completed")
	assert.Contains(t, out, "Completed")

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "project", "update", short, "--status", "paused")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACTIVE, ARCHIVED, COMPLETED")

	mustRun(t, app, "--as", "olivia@example.com", "project", "rm", short)
	_, err = app.Projects.GetProject(context.Background(), "anyone", projectID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberCommands(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	short := projectID[:8]

	mustRun(t, app, "--as", "olivia@example.com", "task", "add",
		"--project", short, "--title", "Draft copy", "--assignee", "marco@example.com")

	_, err := executeCmd(t, app, "--as", "marco@example.com", "member", "rm", short, "olivia@example.com")
	assert.ErrorIs(t, err, domain.ErrCannotRemoveOwner)

	out := mustRun(t, app, "--as", "olivia@example.com", "member", "rm", short, "marco@example.com")
	assert.Contains(t, out, "Removed Marco from Website")
	assert.Contains(t, out, "1 task(s) unassigned")
	assert.Nil(t, taskByTitle(t, app, projectID, "Draft copy").AssigneeID)

	mustRun(t, app, "--as", "olivia@example.com", "member", "add", short, "marco@example.com")
	out = mustRun(t, app, "--as", "olivia@example.com", "member", "transfer", short, "marco@example.com")
	assert.Contains(t, out, "Marco now owns Website")
}

func TestTaskLifecycle(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	short := projectID[:8]
	as := []string{"--as", "olivia@example.com"}
	run := func(args ...string) string { return mustRun(t, app, append(as, args...)...) }

	out := run("task", "add", "--project", short, "--title", "Write API",
		"--priority", "high", "--due", "2026-11-02", "--tag", "backend", "--tag", "api", "--estimate", "6")
	assert.Contains(t, out, "Created task Write API")
	assert.Contains(t, out, "HIGH")

	task := taskByTitle(t, app, projectID, "Write API")
	assert.Equal(t, []string{"api", "backend"}, task.Tags)
	require.NotNil(t, task.DueDate)
	id := task.ID[:8]

	run("task", "assign", id, "marco@example.com")
	out = run("task", "list", "--project", short, "--assignee", "marco@example.com")
	assert.Contains(t, out, "Write API")
	assert.Contains(t, out, "Marco")
	assert.Contains(t, out, "Tomorrow")

	out = run("task", "list", "--project", short, "--status", "in-progress")
	assert.Contains(t, out, "No tasks match")

	run("task", "unassign", id)
	assert.Nil(t, taskByTitle(t, app, projectID, "Write API").AssigneeID)

	_, err := executeCmd(t, app, append(as, "task", "move", id, "done")...)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	run("task", "move", id, "in_progress")
	run("task", "move", id, "IN_REVIEW")
	out = run("task", "update", id, "--actual", "5", "--status", "done")
	assert.Contains(t, out, "Done")

	_, err = executeCmd(t, app, append(as, "task", "update", id, "--title", "Too late")...)
	assert.ErrorIs(t, err, domain.ErrTaskImmutable)

	out = run("task", "show", id)
	assert.Contains(t, out, "WRITE API")
	assert.Contains(t, out, "5h / 6h")

	run("task", "rm", id)
	out = run("task", "list", "--project", short)
	assert.Contains(t, out, "No tasks match")
}

func TestTaskListByPriority(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	as := []string{"--as", "olivia@example.com"}
	run := func(args ...string) string { return mustRun(t, app, append(as, args...)...) }

	run("task", "add", "--project", projectID, "--title", "Tidy docs", "--priority", "low")
	run("task", "add", "--project", projectID, "--title", "Fix outage", "--priority", "urgent")
	run("task", "add", "--project", projectID, "--title", "Review PR")

	out := run("task", "list", "--project", projectID, "--order", "priority")
	outage, review, docs := strings.Index(out, "Fix outage"), strings.Index(out, "Review PR"), strings.Index(out, "Tidy docs")
	require.True(t, outage >= 0 && review >= 0 && docs >= 0, out)
	assert.Less(t, outage, review)
	assert.Less(t, review, docs)
}

func TestTaskFlagValidation(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)

	_, err := executeCmd(t, app, "--as", "olivia@example.com", "task", "list", "--project", projectID, "--status", "blocked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of TODO, IN_PROGRESS")

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "task", "add", "--project", projectID,
		"--title", "x", "--priority", "critical")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOW, MEDIUM, HIGH, URGENT")

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "task", "add", "--project", projectID,
		"--title", "x", "--due", "next week")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "task", "add", "--project", projectID,
		"--title", "x", "--estimate", "-1")
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "task", "add", "--project", projectID,
		"--title", "x", "--estimate", "NaN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finite number")

	_, err = executeCmd(t, app, "--as", "olivia@example.com", "task", "list", "--project", projectID,
		"--order", "topo", "--tag", "api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestDependencyCommands(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	as := []string{"--as", "olivia@example.com"}
	run := func(args ...string) string { return mustRun(t, app, append(as, args...)...) }

	for _, title := range []string{"Ship", "Build", "Design"} {
		run("task", "add", "--project", projectID, "--title", title)
	}
	design := taskByTitle(t, app, projectID, "Design").ID
	build := taskByTitle(t, app, projectID, "Build").ID
	ship := taskByTitle(t, app, projectID, "Ship").ID

	run("dep", "add", build[:8], design[:8])
	run("dep", "add", ship, build)

	_, err := executeCmd(t, app, append(as, "dep", "add", design, ship)...)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Contains(t, formatter.FormatError(err), "CycleDetected:")

	_, err = executeCmd(t, app, append(as, "dep", "add", design, design)...)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)

	out := run("task", "list", "--project", projectID, "--order", "topo")
	assert.Less(t, bytes.Index([]byte(out), []byte("Design")), bytes.Index([]byte(out), []byte("Build")))
	assert.Less(t, bytes.Index([]byte(out), []byte("Build")), bytes.Index([]byte(out), []byte("Ship")))

	out = run("dep", "list", build)
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "Ship")
	assert.Contains(t, out, "Blocked by 1 open task(s)")

	run("dep", "rm", build, design)
	out = run("dep", "list", build)
	assert.Contains(t, out, "Ready: no open blockers")

	_, err = executeCmd(t, app, append(as, "dep", "rm", build, design)...)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommentCommands(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	mustRun(t, app, "--as", "olivia@example.com", "task", "add", "--project", projectID, "--title", "Review")
	id := taskByTitle(t, app, projectID, "Review").ID

	mustRun(t, app, "--as", "marco@example.com", "comment", "add", id, "looks", "good")
	mustRun(t, app, "--as", "olivia@example.com", "comment", "add", id, "thanks")

	out := mustRun(t, app, "--as", "olivia@example.com", "comment", "list", id)
	assert.Contains(t, out, "Marco")
	assert.Contains(t, out, "looks good")
	assert.Less(t, bytes.Index([]byte(out), []byte("looks good")), bytes.Index([]byte(out), []byte("thanks")))

	_, err := executeCmd(t, app, "--as", "olivia@example.com", "comment", "add", id, "   ")
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestNonMemberCannotSeeProject(t *testing.T) {
	app := testApp(t)
	projectID := seedTeam(t, app)
	mustRun(t, app, "user", "add", "--email", "eve@example.com", "--name", "Eve")

	_, err := executeCmd(t, app, "--as", "eve@example.com", "project", "show", projectID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = executeCmd(t, app, "--as", "eve@example.com", "task", "add", "--project", projectID, "--title", "x")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestImportCmd(t *testing.T) {
	app := testApp(t)

	out := mustRun(t, app, "import", "../importer/testdata/launch.json")
	assert.Contains(t, out, "Imported project Website launch")

	out = mustRun(t, app, "--as", "marco@example.com", "project", "list")
	assert.Contains(t, out, "Website launch")

	_, err := executeCmd(t, app, "import", "testdata/missing.json")
	require.Error(t, err)
}

func TestServeCmd(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	errStop := errors.New("stopped")
	called := false
	app.Serve = func(ctx context.Context) error {
		called = true
		return errStop
	}
	_, err = executeCmd(t, app, "serve")
	assert.ErrorIs(t, err, errStop)
	assert.True(t, called)
}

func TestMatchPrefix(t *testing.T) {
	ids := []string{"abc-1", "abd-2", "xyz-3"}

	id, err := matchPrefix("task", "xy", ids)
	require.NoError(t, err)
	assert.Equal(t, "xyz-3", id)

	id, err = matchPrefix("task", "abc-1", ids)
	require.NoError(t, err)
	assert.Equal(t, "abc-1", id)

	_, err = matchPrefix("task", "ab", ids)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = matchPrefix("task", "q", ids)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
