package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrResourceLimit = errors.New("resource limit exceeded")
	ErrTransient     = errors.New("transient storage error")
	ErrInvariant     = errors.New("invariant violation")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// Machine-readable error kinds, returned by KindOf and included in API problem responses.
const (
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindValidation    = "validation"
	KindResourceLimit = "resource_limit_exceeded"
	KindTransient     = "transient_storage"
	KindInvariant     = "invariant_violation"
	KindUnauthorized  = "unauthorized"
	KindForbidden     = "forbidden"
	KindInternal      = "internal"
)

type (
	// NotFoundError indicates an unknown node, document or revision
	NotFoundError struct {
		Resource string
		ID       string
		Message  string
	}

	// ValidationError indicates a malformed field or request
	ValidationError struct {
		Message string
	}

	// ResourceLimitError indicates an input exceeded a configured ceiling
	ResourceLimitError struct {
		Message string
		Limit   int
		Actual  int
	}
)

func (e *NotFoundError) Error() string      { return e.Message }
func (e *ValidationError) Error() string    { return e.Message }
func (e *ResourceLimitError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *ResourceLimitError) StatusCode() int { return http.StatusRequestEntityTooLarge }

func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *ResourceLimitError) Is(target error) bool { return target == ErrResourceLimit }

// ConflictError represents a state conflict: a cycle on move, an out-of-order or
// duplicate revision, a folder/document type mismatch or a duplicate placement.
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // node, folder, document, revision, placement
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// TransientStorageError wraps a retryable storage failure.
type TransientStorageError struct {
	Op  string
	Err error
}

func (e *TransientStorageError) Error() string {
	return "transient storage error in " + e.Op + ": " + e.Err.Error()
}
func (e *TransientStorageError) Unwrap() error        { return e.Err }
func (e *TransientStorageError) StatusCode() int      { return http.StatusServiceUnavailable }
func (e *TransientStorageError) Is(target error) bool { return target == ErrTransient }

// InvariantViolationError reports internal corruption. The operation that hit it
// is aborted and rolled back; Detail is meant for operators, not end users.
type InvariantViolationError struct {
	Message string
	Detail  map[string]any
}

func (e *InvariantViolationError) Error() string        { return "invariant violation: " + e.Message }
func (e *InvariantViolationError) StatusCode() int      { return http.StatusInternalServerError }
func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariant }

// NewNotFound builds a NotFoundError with a conventional message.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Message: resource + " " + id + " not found"}
}

// NewValidation builds a ValidationError.
func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// KindOf classifies err into one of the Kind* constants.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvariant):
		return KindInvariant
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrResourceLimit):
		return KindResourceLimit
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
