package openlibrary

import (
	"fmt"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
)

// Sentinel errors for Open Library operations. Each also matches the domain
// sentinel with the same code.
var (
	ErrNotFound    = domainerrors.NotFound("openlibrary: not found")
	ErrRateLimited = domainerrors.RateLimited("openlibrary: rate limited by server")
	ErrServer      = domainerrors.SourceUnavailable("openlibrary: server error")
	ErrBadStatus   = domainerrors.UpstreamRejection("openlibrary: unexpected status")
	ErrEmptyQuery  = domainerrors.Validation("openlibrary: title or author required")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // "search", "work"
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("openlibrary %s [%s]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
