package domain

import (
	"errors"  // Error inspection
	"sort"    // Stable field order
	"strings" // String helpers
)

// Sentinel error kinds shared by the services, the policy and the API layer.
var (
	ErrNotFound             = errors.New("not found")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrInvalidCredentials   = errors.New("invalid login or password")
)

// Conflict reasons.
const (
	ReasonLoginTaken = "login taken"
	ReasonEmailTaken = "email taken"
	ReasonRetry      = "retry"
)

// ValidationError carries field-level messages. The empty field name holds
// form-level messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with one message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Empty reports whether no message was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e.Fields[k])
			continue
		}
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a uniqueness or concurrency conflict. Field names the
// form field the conflict belongs to, if any.
type ConflictError struct {
	Field  string
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// IsRetry reports whether the conflict came from a stale row version.
func (e *ConflictError) IsRetry() bool {
	return e.Reason == ReasonRetry
}

// TransientError wraps a persistence failure. Its cause is for logs only.
type TransientError struct {
	Cause error
}

// Transient wraps err, leaving nil and already classified errors untouched.
func Transient(err error) error {
	if err == nil || IsClassified(err) {
		return err
	}
	return &TransientError{Cause: err}
}

func (e *TransientError) Error() string {
	return "operation failed: " + e.Cause.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// IsClassified reports whether err already is one of the domain error kinds.
func IsClassified(err error) bool {
	var (
		ve *ValidationError
		ce *ConflictError
		te *TransientError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ce), errors.As(err, &te):
		return true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrForbidden), errors.Is(err, ErrAlreadyAuthenticated),
		errors.Is(err, ErrInvalidCredentials):
		return true
	}
	return false
}
