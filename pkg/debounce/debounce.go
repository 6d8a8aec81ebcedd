// Package debounce delays an action until its trigger has been quiet for a fixed interval.
package debounce

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler runs at most one armed action. Scheduling again before the timer
// fires replaces the pending action (trailing edge).
type Scheduler struct {
	timer   *time.Timer
	key     string
	gen     uint64
	armed   bool
	stopped bool
	mu      sync.Mutex
}

// New creates an idle scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Schedule arms action to run once after delay, cancelling whatever was pending.
// key only identifies the pending action for Pending and logging.
func (s *Scheduler) Schedule(key string, delay time.Duration, action func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		log.Debugf("Debounce scheduler stopped, dropping '%s'", key)
		return
	}

	s.cancelLocked()
	s.gen++
	gen := s.gen
	s.key = key
	s.armed = true
	s.timer = time.AfterFunc(delay, func() { s.fire(gen, action) })
}

// CancelPending disarms the pending action without running it. Safe to call
// when nothing is pending. Reports whether an action was cancelled.
func (s *Scheduler) CancelPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// Pending returns the key of the armed action, if any.
func (s *Scheduler) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.armed
}

// Stop cancels the pending action and rejects further schedules.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

func (s *Scheduler) cancelLocked() bool {
	if !s.armed {
		return false
	}
	s.timer.Stop()
	// bumping gen also neutralizes a timer that already fired and is
	// waiting on the mutex
	s.gen++
	s.armed = false
	s.key = ""
	s.timer = nil
	return true
}

func (s *Scheduler) fire(gen uint64, action func()) {
	s.mu.Lock()
	if gen != s.gen || !s.armed {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.key = ""
	s.timer = nil
	s.mu.Unlock()

	action()
}
