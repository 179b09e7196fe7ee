package api

import (
	"net/http"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/service"
)

// POST /tasks
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in := service.CreateTaskInput{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		AssigneeID:     req.AssigneeID,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
	}
	if req.Priority != "" {
		p, ok := domain.ParsePriority(req.Priority)
		if !ok {
			s.writeError(w, r, badRequest("invalid priority %q", req.Priority))
			return
		}
		in.Priority = p
	}
	t, err := s.svc.Tasks.CreateTask(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toTaskView(t))
}

// GET /tasks/{id}
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tasks.GetTask(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTaskView(t))
}

// PUT /tasks/{id}
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.UpdateTask(r.Context(), actorFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTaskView(t))
}

// DELETE /tasks/{id}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Tasks.DeleteTask(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": r.PathValue("id")})
}

// POST /tasks/{id}/assign
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req userRefRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.svc.Tasks.Assign(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTaskView(t))
}

// POST /tasks/{id}/unassign
func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tasks.Unassign(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTaskView(t))
}

// GET /tasks/{id}/dependencies
func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := s.svc.Tasks.ListDependencies(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toDependenciesView(deps))
}

// POST /tasks/{id}/dependencies
func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var req addDependencyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	taskID := r.PathValue("id")
	if err := s.svc.Tasks.AddDependency(r.Context(), actorFrom(r.Context()), taskID, req.DependsOnID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]string{"task_id": taskID, "depends_on_id": req.DependsOnID})
}

// DELETE /tasks/{id}/dependencies/{depId}
func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	taskID, depID := r.PathValue("id"), r.PathValue("depId")
	if err := s.svc.Tasks.RemoveDependency(r.Context(), actorFrom(r.Context()), taskID, depID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"task_id": taskID, "depends_on_id": depID})
}

// GET /tasks/{id}/comments
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.svc.Tasks.ListComments(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, toCommentView(c))
	}
	writeData(w, http.StatusOK, views)
}

// POST /tasks/{id}/comments
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Tasks.AddComment(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toCommentView(c))
}
