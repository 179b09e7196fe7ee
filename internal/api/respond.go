package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alexanderramin/cybertask/internal/domain"
)

// envelope wraps every response body.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
}

// statusByKind maps domain error kinds onto HTTP status codes.
var statusByKind = map[error]int{
	domain.ErrNotFound:               http.StatusNotFound,
	domain.ErrConstraintViolation:    http.StatusBadRequest,
	domain.ErrInvalidTransition:      http.StatusBadRequest,
	domain.ErrTaskImmutable:          http.StatusBadRequest,
	domain.ErrCycleDetected:          http.StatusBadRequest,
	domain.ErrCrossProjectDependency: http.StatusBadRequest,
	domain.ErrNotAMember:             http.StatusBadRequest,
	domain.ErrCannotRemoveOwner:      http.StatusForbidden,
	domain.ErrUnauthorized:           http.StatusForbidden,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, envelope{Success: false, Error: &body})
}

// writeError classifies err. Domain errors keep their kind and context;
// anything else is reported as an opaque 500 and logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		status, known := statusByKind[de.Kind]
		if !known {
			status = http.StatusInternalServerError
		}
		writeFailure(w, status, errorBody{Kind: de.KindName(), Message: de.Message, Context: de.Context})
		return
	}
	if errors.Is(err, domain.ErrConstraintViolation) {
		writeFailure(w, http.StatusBadRequest, errorBody{Kind: "ConstraintViolation", Message: err.Error()})
		return
	}
	s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeFailure(w, http.StatusInternalServerError, errorBody{Kind: "Internal", Message: "internal error"})
}

// decodeBody reads a JSON request body into v. Unknown fields are rejected.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Violation("invalid request body: %s", err.Error())
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return domain.Violation("%s", fmt.Sprintf(format, args...))
}
