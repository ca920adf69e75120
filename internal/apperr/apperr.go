// Package apperr maps domain failures onto HTTP-facing errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zulandar/bugyard/internal/bug"
)

// Client-facing messages.
const (
	MsgBugNotFound   = "Bug not found"
	MsgInvalidID     = "Invalid bug ID format"
	MsgRouteNotFound = "Route not found"
	MsgInvalidJSON   = "Invalid JSON body"
	MsgInternal      = "Internal server error"
)

// AppError is an error with the HTTP status and message to show the client.
type AppError struct {
	HTTPStatus int
	Message    string
	// Err is the underlying cause. It is logged, never sent to the client.
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.HTTPStatus, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.HTTPStatus, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(status int, message string) *AppError {
	return &AppError{HTTPStatus: status, Message: message}
}

// BadRequest creates a 400 error.
func BadRequest(message string) *AppError { return New(http.StatusBadRequest, message) }

// NotFound creates a 404 error.
func NotFound(message string) *AppError { return New(http.StatusNotFound, message) }

// Internal wraps err as a 500 with a generic message.
func Internal(err error) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Message: MsgInternal, Err: err}
}

// From classifies err: validation and malformed ids are 400, missing bugs
// are 404, anything else is a 500 that hides the cause.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var verr *bug.ValidationError
	switch {
	case errors.As(err, &verr):
		return &AppError{HTTPStatus: http.StatusBadRequest, Message: verr.Error(), Err: err}
	case errors.Is(err, bug.ErrInvalidID):
		return &AppError{HTTPStatus: http.StatusBadRequest, Message: MsgInvalidID, Err: err}
	case errors.Is(err, bug.ErrNotFound):
		return &AppError{HTTPStatus: http.StatusNotFound, Message: MsgBugNotFound, Err: err}
	default:
		return Internal(err)
	}
}
