package audioaz

import (
	"fmt"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
)

// Sentinel errors for AudioAZ operations.
var (
	// ErrInvalidURL also matches domainerrors.ErrValidation.
	ErrInvalidURL = domainerrors.Validation("audioaz: not an audiobook page URL")
	ErrStatus     = domainerrors.UpstreamRejection("audioaz: unexpected status")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("audioaz %s [%s]: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, url string, err error) error {
	return &Error{Op: op, URL: url, Err: err}
}
