package apperrors

import (
	"errors"
	"net/http"
)

// Error carries an error category, the HTTP status it maps to, a message that
// is safe to return to clients, and the detailed message kept for logs.
type Error struct {
	Category      string // "validation", "not_found", "conflict", "forbidden", "internal"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *Error) Error() string {
	if e.InternalError != "" {
		return e.InternalError
	}
	return e.PublicError
}

func (e *Error) Unwrap() error {
	return e.OriginalErr
}

func Validation(message string) *Error {
	return &Error{
		Category:      "validation",
		StatusCode:    http.StatusBadRequest,
		PublicError:   message,
		InternalError: message,
	}
}

func NotFound(message string) *Error {
	return &Error{
		Category:      "not_found",
		StatusCode:    http.StatusNotFound,
		PublicError:   message,
		InternalError: message,
	}
}

// Conflict marks a rejected business-rule transition. The message is the
// specific human-readable reason, never a generic denial.
func Conflict(message string) *Error {
	return &Error{
		Category:      "conflict",
		StatusCode:    http.StatusConflict,
		PublicError:   message,
		InternalError: message,
	}
}

func Forbidden(message string) *Error {
	return &Error{
		Category:      "forbidden",
		StatusCode:    http.StatusForbidden,
		PublicError:   message,
		InternalError: message,
	}
}

func Internal(public string, err error) *Error {
	internal := public
	if err != nil {
		internal = public + ": " + err.Error()
	}
	return &Error{
		Category:      "internal",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   public,
		InternalError: internal,
		OriginalErr:   err,
	}
}

// StatusOf returns the HTTP status for err, defaulting to 500 for errors that
// did not come from this package.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.PublicError
	}
	return "Internal server error"
}
