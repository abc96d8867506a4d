package sources

import (
	"errors"
	"fmt"
)

// Sentinel errors for chapter source collection.
var (
	ErrNotFound     = errors.New("sources: not found")
	ErrRateLimited  = errors.New("sources: rate limited by server")
	ErrBadRequest   = errors.New("sources: bad request")
	ErrServer       = errors.New("sources: server error")
	ErrInvalidASIN  = errors.New("sources: invalid ASIN format")
	ErrNoChapters   = errors.New("sources: no chapters available")
	ErrDisabled     = errors.New("sources: source disabled")
	ErrInvalidRowID = errors.New("sources: invalid row ID")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // Operation: "embedded", "catalog", "absImport"
	BookID string
	Err    error
}

func (e *Error) Error() string {
	if e.BookID != "" {
		return fmt.Sprintf("sources %s [%s]: %v", e.Op, e.BookID, e.Err)
	}
	return fmt.Sprintf("sources %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, bookID string, err error) error {
	return &Error{Op: op, BookID: bookID, Err: err}
}
