package autocomplete

import (
	"slices"

	"github.com/bastiangx/typeahead/pkg/highlight"
)

// Status is the phase of the query cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusDebouncing
	StatusLoading
	StatusSuccess
	StatusEmpty
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDebouncing:
		return "debouncing"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// ViewKind is the single thing a rendering layer should show.
type ViewKind int

const (
	ViewNone ViewKind = iota
	ViewLoading
	ViewError
	ViewNoResults
	ViewList
)

// State is a snapshot of the orchestrator. Snapshots own their slices.
type State[T any] struct {
	Input       string
	Query       string
	Suggestions []T
	Status      Status
	Err         *Error
	Highlight   int

	// Revision increases with every change.
	Revision uint64
}

func initialState[T any]() State[T] {
	return State[T]{
		Suggestions: []T{},
		Status:      StatusIdle,
		Highlight:   highlight.None,
	}
}

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool {
	return s.Status == StatusLoading
}

// NoResults reports whether the last completed fetch returned nothing.
func (s State[T]) NoResults() bool {
	return s.Status == StatusEmpty
}

// View picks exactly one of loading, error, no results or the list.
func (s State[T]) View() ViewKind {
	switch {
	case s.Status == StatusLoading:
		return ViewLoading
	case s.Err != nil:
		return ViewError
	case s.Status == StatusEmpty:
		return ViewNoResults
	case len(s.Suggestions) > 0:
		return ViewList
	}
	return ViewNone
}

// Highlighted returns the highlighted suggestion.
func (s State[T]) Highlighted() (T, bool) {
	var zero T
	if s.Highlight < 0 || s.Highlight >= len(s.Suggestions) {
		return zero, false
	}
	return s.Suggestions[s.Highlight], true
}

func (s State[T]) clone() State[T] {
	s.Suggestions = slices.Clone(s.Suggestions)
	return s
}

// completedStatus is the status after a list was received.
func completedStatus(n int) Status {
	if n == 0 {
		return StatusEmpty
	}
	return StatusSuccess
}

// restingStatus is the status once pending work was dropped without a result.
func restingStatus(n int) Status {
	if n == 0 {
		return StatusIdle
	}
	return StatusSuccess
}
