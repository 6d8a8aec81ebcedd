package autocomplete

import (
	"errors"
	"fmt"

	"github.com/bastiangx/typeahead/pkg/retry"
)

// ErrorKind classifies failures surfaced in State.Err.
type ErrorKind string

const (
	// KindFetchFailed means the primary query exhausted its attempts.
	KindFetchFailed ErrorKind = "fetch_failed"

	// KindSelectionFetchFailed means the post-selection call failed.
	KindSelectionFetchFailed ErrorKind = "selection_fetch_failed"

	// KindCancelled marks superseded work. It is only ever logged, never stored in state.
	KindCancelled ErrorKind = "cancelled"
)

// ErrCancelled is the outcome of work whose epoch was invalidated.
var ErrCancelled = retry.ErrCancelled

// Error is a failure visible to the rendering layer.
type Error struct {
	Kind     ErrorKind
	Query    string
	Attempts int
	Err      error
}

func newError(kind ErrorKind, query string, err error) *Error {
	e := &Error{
		Kind:  kind,
		Query: query,
		Err:   err,
	}
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		e.Attempts = exhausted.Attempts
		e.Err = exhausted.Last
	}
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s for %q after %d attempts: %v", e.Kind, e.Query, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s for %q: %v", e.Kind, e.Query, e.Err)
}

// Unwrap returns the underlying fetch error
func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the generic text shown to users.
func (e *Error) Message() string {
	switch e.Kind {
	case KindSelectionFetchFailed:
		return "Could not load related suggestions"
	default:
		return "Could not load suggestions"
	}
}

// IsCancelled reports whether err only signals superseded work.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
