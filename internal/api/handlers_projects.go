package api

import (
	"net/http"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
)

// POST /projects
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Projects.CreateProject(r.Context(), actorFrom(r.Context()), service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toProjectView(p))
}

// GET /projects
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.Projects.ListProjects(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, toProjectView(p))
	}
	writeData(w, http.StatusOK, views)
}

// GET /projects/{id}
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Projects.GetProject(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProjectView(p))
}

// PUT /projects/{id}
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch := service.ProjectPatch{Name: req.Name, Description: req.Description}
	if req.Status != nil {
		st, ok := domain.ParseProjectStatus(*req.Status)
		if !ok {
			s.writeError(w, r, badRequest("invalid project status %q", *req.Status))
			return
		}
		patch.Status = &st
	}
	p, err := s.svc.Projects.UpdateProject(r.Context(), actorFrom(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProjectView(p))
}

// DELETE /projects/{id}
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Projects.DeleteProject(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"deleted": r.PathValue("id")})
}

// POST /projects/{id}/members
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req userRefRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Projects.AddMember(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProjectView(p))
}

// DELETE /projects/{id}/members/{userId}
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Projects.RemoveMember(r.Context(), actorFrom(r.Context()), r.PathValue("id"), r.PathValue("userId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"project":          toProjectView(res.Project),
		"unassigned_tasks": res.UnassignedTasks,
	})
}

// POST /projects/{id}/owner
func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req userRefRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Projects.TransferOwnership(r.Context(), actorFrom(r.Context()), r.PathValue("id"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toProjectView(p))
}

// GET /projects/{id}/tasks?status=&assignee=&tag=&order=topo
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	projectID := r.PathValue("id")

	if q.Get("order") == "topo" {
		tasks, err := s.svc.Tasks.ListTasksInOrder(ctx, actorFrom(ctx), projectID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, toTaskViews(tasks))
		return
	}

	filter := repository.TaskFilter{AssigneeID: q.Get("assignee"), Tag: q.Get("tag")}
	if raw := q.Get("status"); raw != "" {
		st, ok := domain.ParseTaskStatus(raw)
		if !ok {
			s.writeError(w, r, badRequest("invalid status %q", raw))
			return
		}
		filter.Status = st
	}
	tasks, err := s.svc.Tasks.ListTasks(ctx, actorFrom(ctx), projectID, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toTaskViews(tasks))
}
