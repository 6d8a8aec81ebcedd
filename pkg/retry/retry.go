// Package retry wraps a fetch call with a bounded number of attempts and a
// linear backoff between them. Cancellation of the caller's context is never
// reported as a failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Default policy values.
const (
	DefaultMaxAttempts = 2
	DefaultBackoffBase = 150 * time.Millisecond
)

// ErrCancelled is returned when the context was cancelled before, during or
// after an attempt. Callers must discard the outcome silently.
var ErrCancelled = errors.New("retry: cancelled")

// Func fetches the items for query. Implementations should honour ctx.
type Func[T any] func(ctx context.Context, query string) ([]T, error)

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Policy bounds the retries.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// DefaultPolicy returns two attempts with a 150ms base delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
	}
}

// Backoff is the delay before the attempt following attempt (zero based).
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BackoffBase * time.Duration(attempt+1)
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Query    string
	Attempts int
	Last     error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch for %q failed after %d attempts: %v", e.Query, e.Attempts, e.Last)
}

// Unwrap returns the error of the final attempt
func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Executor runs fetches under a Policy.
type Executor[T any] struct {
	policy Policy
	wait   WaitFunc
}

// New creates an executor. A policy with fewer than one attempt is run once.
func New[T any](policy Policy) *Executor[T] {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffBase < 0 {
		policy.BackoffBase = 0
	}
	return &Executor[T]{
		policy: policy,
		wait:   Sleep,
	}
}

// WithWait replaces the backoff wait, mostly so tests can observe delays.
func (e *Executor[T]) WithWait(wait WaitFunc) *Executor[T] {
	e.wait = wait
	return e
}

// Policy returns the executor's policy.
func (e *Executor[T]) Policy() Policy {
	return e.policy
}

// Execute calls fetch until it succeeds, the attempts run out, or ctx is done.
// A nil result from fetch is returned as an empty slice.
func (e *Executor[T]) Execute(ctx context.Context, query string, fetch Func[T]) ([]T, error) {
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		items, err := fetch(ctx, query)
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		if err == nil {
			if items == nil {
				items = []T{}
			}
			return items, nil
		}

		lastErr = err
		if attempt == e.policy.MaxAttempts-1 {
			break
		}

		backoff := e.policy.Backoff(attempt)
		log.Debugf("Fetch attempt %d for '%s' failed: %v. Retrying in %v", attempt+1, query, err, backoff)
		if err := e.wait(ctx, backoff); err != nil {
			return nil, ErrCancelled
		}
	}

	return nil, &ExhaustedError{
		Query:    query,
		Attempts: e.policy.MaxAttempts,
		Last:     lastErr,
	}
}

// Sleep waits for d unless ctx finishes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs fetch under policy, sleeping on the real clock between attempts.
func Execute[T any](ctx context.Context, policy Policy, query string, fetch Func[T]) ([]T, error) {
	return New[T](policy).Execute(ctx, query, fetch)
}
