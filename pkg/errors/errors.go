package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of application error.
type ErrorCode int

const (
	ErrUnauthenticated ErrorCode = iota + 1000
	ErrForbidden
	ErrValidation
	ErrNotFound
	ErrConflict
	ErrUpstream
	ErrPartialFailure
	ErrInternal
)

// AppError is the error type returned from every service boundary. The
// message is safe to return to callers; Err carries the internal cause and
// is logged, never serialized.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error class to an HTTP status. Consumed by the error
// middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{Code: ErrUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "permission denied"
	}
	return &AppError{Code: ErrForbidden, Message: message}
}

func Validation(message string) *AppError {
	return &AppError{Code: ErrValidation, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Conflict(message string) *AppError {
	return &AppError{Code: ErrConflict, Message: message}
}

// Upstream wraps a failure from the identity provider or data store. The
// caller sees a generic message; err is kept for logs.
func Upstream(err error) *AppError {
	return &AppError{Code: ErrUpstream, Message: "upstream service failed", Err: err}
}

// PartialFailure reports a multi-step operation that failed after some side
// effects committed and whose compensation also failed. Operators must clean
// up by hand, so this is never collapsed into a generic 500.
func PartialFailure(message string, err error) *AppError {
	if message == "" {
		message = "operation partially applied, manual cleanup required"
	}
	return &AppError{Code: ErrPartialFailure, Message: message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: ErrInternal, Message: "internal server error", Err: err}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From extracts the AppError from err, wrapping unknown errors as internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
