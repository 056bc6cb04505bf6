package domain

import (
	"errors"
	"fmt"
)

// Recoverable source failures. Any of these makes the resolver move on to
// the next change source.
var (
	ErrUnsupportedEvent    = errors.New("unsupported event type")
	ErrMissingRevision     = errors.New("missing revision")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrSourceUnavailable   = errors.New("change source unavailable")
)

// SourceError records which change source failed and why.
type SourceError struct {
	Source string
	Err    error
}

// NewSourceError wraps err with the name of the failing source.
func NewSourceError(source string, err error) *SourceError {
	return &SourceError{Source: source, Err: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err is one of the expected source failures
// rather than something unanticipated.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnsupportedEvent) ||
		errors.Is(err, ErrMissingRevision) ||
		errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrSourceUnavailable)
}
