// Package apperror defines the error kinds shared by every layer.
//
// Services and repositories return an *AppError wrapping one of the sentinel
// values below. Handlers never inspect messages; they map the sentinel to an
// HTTP status with errors.Is. Anything that does not wrap a sentinel is
// treated as a server error.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation error")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotPending    = errors.New("not pending")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AlreadyExists reports that the resource the caller tried to create is
// already there. HTTP handlers map this to 409 Conflict.
func AlreadyExists(message string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: message,
	}
}

// NotPending reports a state transition attempted on a row that exists but is
// no longer in the state the transition requires.
func NotPending(resource, id, current string) *AppError {
	return &AppError{
		Err:     ErrNotPending,
		Message: fmt.Sprintf("%s %s is not pending (status %s)", resource, id, current),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Kind returns the machine-readable name of the sentinel wrapped by err, or
// "internal_error" when err does not wrap one.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	default:
		return "internal_error"
	}
}
