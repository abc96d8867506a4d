package store

import (
	"fmt"
	"net/http"
)

// Error is a store error with an HTTP status code, so handlers can map
// persistence failures without switching on sentinel types.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code for this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Is matches other *Error values with the same code, so sentinel comparisons
// survive WithMessage/WithCause copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// Sentinel errors.
var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	ErrInvalidInput  = &Error{Code: http.StatusBadRequest, Message: "invalid input"}
	ErrInternal      = &Error{Code: http.StatusInternalServerError, Message: "internal storage error"}
)
