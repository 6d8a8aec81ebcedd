package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduleRunsOnce(t *testing.T) {
	s := New()
	var runs atomic.Int32

	s.Schedule("ap", 10*time.Millisecond, func() { runs.Add(1) })

	key, ok := s.Pending()
	assert.True(t, ok)
	assert.Equal(t, "ap", key)

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	_, ok = s.Pending()
	assert.False(t, ok)
}

func TestRescheduleReplacesPending(t *testing.T) {
	s := New()
	var first, second atomic.Int32

	s.Schedule("a", 20*time.Millisecond, func() { first.Add(1) })
	s.Schedule("ap", 20*time.Millisecond, func() { second.Add(1) })

	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced action must never run")
}

func TestTrailingEdge(t *testing.T) {
	s := New()
	var runs atomic.Int32
	start := time.Now()
	var firedAt atomic.Int64

	for i := 0; i < 5; i++ {
		s.Schedule("q", 30*time.Millisecond, func() {
			runs.Add(1)
			firedAt.Store(int64(time.Since(start)))
		})
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	// the timer is re-armed on each call, so firing happens after the last one
	assert.GreaterOrEqual(t, time.Duration(firedAt.Load()), 70*time.Millisecond)
}

func TestCancelPending(t *testing.T) {
	s := New()
	var runs atomic.Int32

	assert.False(t, s.CancelPending(), "nothing pending yet")

	s.Schedule("ap", 10*time.Millisecond, func() { runs.Add(1) })
	assert.True(t, s.CancelPending())
	assert.False(t, s.CancelPending(), "second cancel is a no-op")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
}

func TestStopRejectsSchedules(t *testing.T) {
	s := New()
	var runs atomic.Int32

	s.Schedule("a", 10*time.Millisecond, func() { runs.Add(1) })
	s.Stop()
	s.Schedule("b", time.Millisecond, func() { runs.Add(1) })

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())
	_, ok := s.Pending()
	assert.False(t, ok)
}
