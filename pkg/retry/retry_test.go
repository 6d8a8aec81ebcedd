package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// recordWait captures backoff delays instead of sleeping.
func recordWait(delays *[]time.Duration) WaitFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestSuccessFirstAttempt(t *testing.T) {
	var delays []time.Duration
	e := New[string](DefaultPolicy()).WithWait(recordWait(&delays))
	calls := 0

	items, err := e.Execute(context.Background(), "ap", func(_ context.Context, q string) ([]string, error) {
		calls++
		assert.Equal(t, "ap", q)
		return []string{"apple"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, items)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetryThenSuccess(t *testing.T) {
	var delays []time.Duration
	e := New[string](Policy{MaxAttempts: 2, BackoffBase: 150 * time.Millisecond}).WithWait(recordWait(&delays))
	calls := 0

	items, err := e.Execute(context.Background(), "ap", func(context.Context, string) ([]string, error) {
		calls++
		if calls == 1 {
			return nil, errBoom
		}
		return []string{"apple", "apricot"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "apricot"}, items)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{150 * time.Millisecond}, delays)
}

func TestLinearBackoff(t *testing.T) {
	var delays []time.Duration
	e := New[int](Policy{MaxAttempts: 4, BackoffBase: 10 * time.Millisecond}).WithWait(recordWait(&delays))

	_, err := e.Execute(context.Background(), "q", func(context.Context, string) ([]int, error) {
		return nil, errBoom
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, delays)
}

func TestExhausted(t *testing.T) {
	var delays []time.Duration
	e := New[string](DefaultPolicy()).WithWait(recordWait(&delays))
	calls := 0

	items, err := e.Execute(context.Background(), "ap", func(context.Context, string) ([]string, error) {
		calls++
		return nil, errBoom
	})

	assert.Nil(t, items)
	assert.Equal(t, 2, calls)
	assert.Len(t, delays, 1)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Contains(t, err.Error(), `"ap" failed after 2 attempts`)
}

func TestNilResultCoercedToEmpty(t *testing.T) {
	e := New[string](DefaultPolicy())

	items, err := e.Execute(context.Background(), "zz", func(context.Context, string) ([]string, error) {
		return nil, nil
	})

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0

	_, err := New[string](DefaultPolicy()).Execute(ctx, "ap", func(context.Context, string) ([]string, error) {
		calls++
		return []string{"apple"}, nil
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Zero(t, calls)
}

func TestCancelledDuringAttemptDiscardsSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	_, err := New[string](DefaultPolicy()).Execute(ctx, "ap", func(context.Context, string) ([]string, error) {
		cancel()
		return []string{"apple"}, nil
	})

	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCancelledDuringAttemptDiscardsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := New[string](DefaultPolicy()).Execute(ctx, "ap", func(context.Context, string) ([]string, error) {
		calls++
		cancel()
		return nil, errBoom
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, calls, "no retry after cancellation")
}

func TestCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	e := New[string](Policy{MaxAttempts: 3, BackoffBase: time.Hour})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := e.Execute(ctx, "ap", func(context.Context, string) ([]string, error) {
		calls++
		return nil, errBoom
	})

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, calls)
}

func TestZeroAttemptsRunsOnce(t *testing.T) {
	e := New[string](Policy{})
	calls := 0

	_, err := e.Execute(context.Background(), "ap", func(context.Context, string) ([]string, error) {
		calls++
		return nil, errBoom
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, e.Policy().MaxAttempts)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestExecuteRealClock(t *testing.T) {
	calls := 0
	start := time.Now()
	items, err := Execute(context.Background(), Policy{MaxAttempts: 2, BackoffBase: 10 * time.Millisecond}, "ap",
		func(context.Context, string) ([]string, error) {
			calls++
			if calls == 1 {
				return nil, errBoom
			}
			return []string{"apple"}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, items)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
