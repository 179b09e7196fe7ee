package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ActorHeader carries the id of the acting user.
const ActorHeader = "X-User-ID"

type actorKey struct{}

// actorFrom returns the acting user id stored by withActor.
func actorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

// withActor rejects requests without an actor header with 401.
func (s *Server) withActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			writeFailure(w, http.StatusUnauthorized, errorBody{
				Kind:    "Unauthenticated",
				Message: "missing " + ActorHeader + " header",
			})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests writes one line per request: method, path, status, duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(started).Milliseconds(),
		}
		if actor := r.Header.Get(ActorHeader); actor != "" {
			attrs = append(attrs, "actor_id", actor)
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.ErrorContext(r.Context(), "http_request", attrs...)
			return
		}
		s.logger.InfoContext(r.Context(), "http_request", attrs...)
	})
}
