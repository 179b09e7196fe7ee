package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every DomainError unwraps to exactly one of these, so callers
// classify failures with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrConstraintViolation    = errors.New("constraint violation")
	ErrCycleDetected          = errors.New("cycle detected")
	ErrCrossProjectDependency = errors.New("cross-project dependency")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrTaskImmutable          = errors.New("task immutable")
	ErrNotAMember             = errors.New("not a member")
	ErrCannotRemoveOwner      = errors.New("cannot remove owner")
	ErrUnauthorized           = errors.New("unauthorized")
)

// kindNames gives each kind its stable wire name.
var kindNames = map[error]string{
	ErrNotFound:               "NotFound",
	ErrConstraintViolation:    "ConstraintViolation",
	ErrCycleDetected:          "CycleDetected",
	ErrCrossProjectDependency: "CrossProjectDependency",
	ErrInvalidTransition:      "InvalidTransition",
	ErrTaskImmutable:          "TaskImmutable",
	ErrNotAMember:             "NotAMember",
	ErrCannotRemoveOwner:      "CannotRemoveOwner",
	ErrUnauthorized:           "Unauthorized",
}

// DomainError is a business-rule failure detected locally by the domain or
// service layer. None of them are transient.
type DomainError struct {
	Kind    error
	Message string
	Context map[string]string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, e.Context[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Kind }

// KindName returns the wire name of the error kind, e.g. "CycleDetected".
func (e *DomainError) KindName() string {
	return kindNames[e.Kind]
}

// NewError builds a DomainError. kv is a flat list of context key/value pairs;
// a trailing odd key is ignored.
func NewError(kind error, msg string, kv ...string) *DomainError {
	e := &DomainError{Kind: kind, Message: msg}
	if len(kv) >= 2 {
		e.Context = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Context[kv[i]] = kv[i+1]
		}
	}
	return e
}

// NotFound is shorthand for a missing entity.
func NotFound(entity, id string) *DomainError {
	return NewError(ErrNotFound, entity+" not found", entity+"_id", id)
}

// Violation is shorthand for a ConstraintViolation with a formatted message.
func Violation(format string, args ...any) *DomainError {
	return NewError(ErrConstraintViolation, fmt.Sprintf(format, args...))
}

// AsDomainError extracts the DomainError from err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of the DomainError in err's chain, or nil when err
// carries none.
func KindOf(err error) error {
	if de, ok := AsDomainError(err); ok {
		return de.Kind
	}
	return nil
}
