// Package api exposes the CyberTask services over HTTP with a JSON envelope.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/cybertask/internal/service"
)

// Services bundles the facades the API calls into.
type Services struct {
	Users    service.UserService
	Projects service.ProjectService
	Tasks    service.TaskService
}

// Server is the HTTP API server.
type Server struct {
	svc        Services
	logger     *slog.Logger
	startTime  time.Time
	httpServer *http.Server

	// handler replaces the routed handler when set.
	handler http.Handler
}

// NewServer creates a new API server. A nil logger discards request logs.
func NewServer(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		svc:       svc,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /users", s.handleRegisterUser)
	mux.HandleFunc("GET /users", s.withActor(s.handleListUsers))
	mux.HandleFunc("GET /users/{id}", s.withActor(s.handleGetUser))

	mux.HandleFunc("POST /projects", s.withActor(s.handleCreateProject))
	mux.HandleFunc("GET /projects", s.withActor(s.handleListProjects))
	mux.HandleFunc("GET /projects/{id}", s.withActor(s.handleGetProject))
	mux.HandleFunc("PUT /projects/{id}", s.withActor(s.handleUpdateProject))
	mux.HandleFunc("DELETE /projects/{id}", s.withActor(s.handleDeleteProject))
	mux.HandleFunc("POST /projects/{id}/members", s.withActor(s.handleAddMember))
	mux.HandleFunc("DELETE /projects/{id}/members/{userId}", s.withActor(s.handleRemoveMember))
	mux.HandleFunc("POST /projects/{id}/owner", s.withActor(s.handleTransferOwnership))
	mux.HandleFunc("GET /projects/{id}/tasks", s.withActor(s.handleListTasks))

	mux.HandleFunc("POST /tasks", s.withActor(s.handleCreateTask))
	mux.HandleFunc("GET /tasks/{id}", s.withActor(s.handleGetTask))
	mux.HandleFunc("PUT /tasks/{id}", s.withActor(s.handleUpdateTask))
	mux.HandleFunc("DELETE /tasks/{id}", s.withActor(s.handleDeleteTask))
	mux.HandleFunc("POST /tasks/{id}/assign", s.withActor(s.handleAssign))
	mux.HandleFunc("POST /tasks/{id}/unassign", s.withActor(s.handleUnassign))
	mux.HandleFunc("GET /tasks/{id}/dependencies", s.withActor(s.handleListDependencies))
	mux.HandleFunc("POST /tasks/{id}/dependencies", s.withActor(s.handleAddDependency))
	mux.HandleFunc("DELETE /tasks/{id}/dependencies/{depId}", s.withActor(s.handleRemoveDependency))
	mux.HandleFunc("GET /tasks/{id}/comments", s.withActor(s.handleListComments))
	mux.HandleFunc("POST /tasks/{id}/comments", s.withActor(s.handleAddComment))

	return s.logRequests(mux)
}

// Start listens on bind until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout. A bind failure is returned immediately.
func (s *Server) Start(ctx context.Context, bind string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", bind, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve accepts connections on ln until ctx is cancelled. Requests inherit
// ctx's values but not its cancellation, so in-flight work drains during
// shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	handler := s.handler
	if handler == nil {
		handler = s.Handler()
	}
	base := context.WithoutCancel(ctx)
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return base },
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.httpServer.Serve(ln) }()
	s.logger.Info("api server starting", "bind", ln.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutCtx); err != nil {
		s.logger.Error("api server shutdown", "error", err)
		return fmt.Errorf("shutting down api server: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": time.Since(s.startTime).Seconds(),
	})
}
