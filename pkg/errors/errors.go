package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict   = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Substitution engine domain errors. All are recoverable and expected to
// carry enough context for the caller to render an actionable message.
var (
	ErrOverlap                = New("AVAILABILITY_OVERLAP", http.StatusConflict, "availability window overlaps an existing declaration")
	ErrInUse                  = New("AVAILABILITY_IN_USE", http.StatusConflict, "availability window is referenced by an active substitution")
	ErrNotEligible            = New("TEACHER_NOT_ELIGIBLE", http.StatusUnprocessableEntity, "teacher fails conflict, qualification or cap check")
	ErrConcurrentModification = New("CONCURRENT_MODIFICATION", http.StatusConflict, "request was modified concurrently, retry")
	ErrLateCancellation       = New("LATE_CANCELLATION", http.StatusUnprocessableEntity, "same-day cancellation of a confirmed substitution requires override")
	ErrInvalidTransition      = New("INVALID_TRANSITION", http.StatusConflict, "operation not allowed from current request status")
	ErrNoCandidate            = New("NO_CANDIDATE", http.StatusNotFound, "no eligible substitute teacher found")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
