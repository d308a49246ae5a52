package librivox

import (
	"fmt"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
)

// Sentinel errors for LibriVox API operations. Each also matches the domain
// sentinel with the same code.
var (
	ErrNotFound    = domainerrors.NotFound("librivox: not found")
	ErrRateLimited = domainerrors.RateLimited("librivox: rate limited by server")
	ErrServer      = domainerrors.SourceUnavailable("librivox: server error")
	ErrBadStatus   = domainerrors.UpstreamRejection("librivox: unexpected status")
	ErrInvalidID   = domainerrors.Validation("librivox: invalid id")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // "list", "fetch"
	Key string // source key, if applicable
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("librivox %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("librivox %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, key string, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}
