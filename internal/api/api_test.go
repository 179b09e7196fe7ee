package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/alexanderramin/cybertask/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	logs    *bytes.Buffer
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	repos := repository.NewSQLiteRepos(database)
	uow := testutil.NewTestUoW(database)
	locks := service.NewProjectLocks()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	srv := NewServer(Services{
		Users:    service.NewUserService(repos.Users, uow),
		Projects: service.NewProjectService(repos, uow, locks),
		Tasks:    service.NewTaskService(repos, uow, locks),
	}, logger)
	return &testEnv{handler: srv.Handler(), logs: logs}
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string            `json:"kind"`
		Message string            `json:"message"`
		Context map[string]string `json:"context"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, actor string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w.Code, resp
}

// ok asserts a successful call and decodes its data into out.
func (e *testEnv) ok(t *testing.T, method, path, actor string, body, out any) {
	t.Helper()
	code, resp := e.do(t, method, path, actor, body)
	require.True(t, resp.Success, "%s %s -> %d %+v", method, path, code, resp.Error)
	require.Less(t, code, 300)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

func (e *testEnv) register(t *testing.T, name string) userView {
	t.Helper()
	var u userView
	e.ok(t, http.MethodPost, "/users", "", registerUserRequest{Email: name + "@example.com", DisplayName: name}, &u)
	return u
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)
	code, resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
}

func TestMissingActorIs401(t *testing.T) {
	env := setupTestServer(t)
	code, resp := env.do(t, http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Unauthenticated", resp.Error.Kind)
}

func TestProjectAndTaskFlow(t *testing.T) {
	env := setupTestServer(t)
	owner := env.register(t, "owner")
	member := env.register(t, "member")
	outsider := env.register(t, "outsider")

	var p projectView
	env.ok(t, http.MethodPost, "/projects", owner.ID, createProjectRequest{Name: "Launch"}, &p)
	assert.Equal(t, owner.ID, p.OwnerID)
	env.ok(t, http.MethodPost, "/projects/"+p.ID+"/members", owner.ID, userRefRequest{UserID: member.ID}, &p)
	assert.Contains(t, p.MemberIDs, member.ID)

	code, resp := env.do(t, http.MethodGet, "/projects/"+p.ID, outsider.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Unauthorized", resp.Error.Kind)

	var a, b taskView
	env.ok(t, http.MethodPost, "/tasks", owner.ID, createTaskRequest{ProjectID: p.ID, Title: "A", Priority: "high"}, &a)
	env.ok(t, http.MethodPost, "/tasks", member.ID, createTaskRequest{ProjectID: p.ID, Title: "B", Tags: []string{"api"}}, &b)
	assert.Equal(t, "HIGH", a.Priority)
	assert.Equal(t, "TODO", a.Status)

	env.ok(t, http.MethodPost, "/tasks/"+b.ID+"/dependencies", owner.ID, addDependencyRequest{DependsOnID: a.ID}, nil)
	code, resp = env.do(t, http.MethodPost, "/tasks/"+a.ID+"/dependencies", owner.ID, addDependencyRequest{DependsOnID: b.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "CycleDetected", resp.Error.Kind)
	assert.Equal(t, a.ID+" -> "+b.ID+" -> "+a.ID, resp.Error.Context["path"])

	var ordered []taskView
	env.ok(t, http.MethodGet, "/projects/"+p.ID+"/tasks?order=topo", member.ID, nil, &ordered)
	require.Len(t, ordered, 2)
	assert.Equal(t, a.ID, ordered[0].ID)

	var tagged []taskView
	env.ok(t, http.MethodGet, "/projects/"+p.ID+"/tasks?tag=api", member.ID, nil, &tagged)
	require.Len(t, tagged, 1)
	assert.Equal(t, b.ID, tagged[0].ID)

	var deps dependenciesView
	env.ok(t, http.MethodGet, "/tasks/"+b.ID+"/dependencies", member.ID, nil, &deps)
	require.Len(t, deps.Blockers, 1)
	assert.Equal(t, a.ID, deps.Blockers[0].ID)

	var moved taskView
	env.ok(t, http.MethodPut, "/tasks/"+a.ID, member.ID, map[string]any{"status": "in_progress"}, &moved)
	assert.Equal(t, "IN_PROGRESS", moved.Status)

	code, resp = env.do(t, http.MethodPut, "/tasks/"+a.ID, member.ID, map[string]any{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidTransition", resp.Error.Kind)

	code, resp = env.do(t, http.MethodPost, "/tasks/"+a.ID+"/assign", owner.ID, userRefRequest{UserID: outsider.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NotAMember", resp.Error.Kind)

	var c commentView
	env.ok(t, http.MethodPost, "/tasks/"+a.ID+"/comments", member.ID, addCommentRequest{Content: "on it"}, &c)
	var comments []commentView
	env.ok(t, http.MethodGet, "/tasks/"+a.ID+"/comments", owner.ID, nil, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, member.ID, comments[0].AuthorID)

	code, resp = env.do(t, http.MethodDelete, "/tasks/"+a.ID, member.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)
	env.ok(t, http.MethodDelete, "/tasks/"+a.ID, owner.ID, nil, nil)

	code, resp = env.do(t, http.MethodGet, "/tasks/"+a.ID, owner.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", resp.Error.Kind)

	env.ok(t, http.MethodGet, "/tasks/"+b.ID+"/dependencies", member.ID, nil, &deps)
	assert.Empty(t, deps.DependsOn)
}

func TestMembershipRoutes(t *testing.T) {
	env := setupTestServer(t)
	owner := env.register(t, "owner")
	member := env.register(t, "member")

	var p projectView
	env.ok(t, http.MethodPost, "/projects", owner.ID, createProjectRequest{Name: "Team"}, &p)
	env.ok(t, http.MethodPost, "/projects/"+p.ID+"/members", owner.ID, userRefRequest{UserID: member.ID}, nil)

	var task taskView
	env.ok(t, http.MethodPost, "/tasks", owner.ID, createTaskRequest{ProjectID: p.ID, Title: "T", AssigneeID: &member.ID}, &task)

	code, resp := env.do(t, http.MethodDelete, "/projects/"+p.ID+"/members/"+owner.ID, member.ID, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "CannotRemoveOwner", resp.Error.Kind)

	var removed struct {
		Project         projectView `json:"project"`
		UnassignedTasks int         `json:"unassigned_tasks"`
	}
	env.ok(t, http.MethodDelete, "/projects/"+p.ID+"/members/"+member.ID, owner.ID, nil, &removed)
	assert.Equal(t, 1, removed.UnassignedTasks)
	assert.NotContains(t, removed.Project.MemberIDs, member.ID)

	var got taskView
	env.ok(t, http.MethodGet, "/tasks/"+task.ID, owner.ID, nil, &got)
	assert.Nil(t, got.AssigneeID)

	env.ok(t, http.MethodPost, "/projects/"+p.ID+"/members", owner.ID, userRefRequest{UserID: member.ID}, nil)
	env.ok(t, http.MethodPost, "/projects/"+p.ID+"/owner", owner.ID, userRefRequest{UserID: member.ID}, &p)
	assert.Equal(t, member.ID, p.OwnerID)
}

func TestBadRequests(t *testing.T) {
	env := setupTestServer(t)
	owner := env.register(t, "owner")
	var p projectView
	env.ok(t, http.MethodPost, "/projects", owner.ID, createProjectRequest{Name: "P"}, &p)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown body field", http.MethodPost, "/projects", map[string]any{"nam": "typo"}, http.StatusBadRequest},
		{"invalid status filter", http.MethodGet, "/projects/" + p.ID + "/tasks?status=BLOCKED", nil, http.StatusBadRequest},
		{"invalid priority", http.MethodPost, "/tasks", map[string]any{"project_id": p.ID, "title": "x", "priority": "meh"}, http.StatusBadRequest},
		{"invalid project status", http.MethodPut, "/projects/" + p.ID, map[string]any{"status": "PAUSED"}, http.StatusBadRequest},
		{"missing project", http.MethodGet, "/projects/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, tt.method, tt.path, owner.ID, tt.body)
			assert.Equal(t, tt.want, code)
			assert.False(t, resp.Success)
		})
	}

	code, resp := env.do(t, http.MethodPost, "/users", "", registerUserRequest{Email: "OWNER@example.com", DisplayName: "dup"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ConstraintViolation", resp.Error.Kind)
}

func TestRequestLogging(t *testing.T) {
	env := setupTestServer(t)
	env.do(t, http.MethodGet, "/health", "", nil)
	out := env.logs.String()
	assert.Contains(t, out, "msg=http_request")
	assert.Contains(t, out, "path=/health")
	assert.Contains(t, out, "status=200")
}
