package state

import (
	"sync"
	"time"
)

// saveScheduler debounces persistence: a burst of mutations within the
// delay window collapses into one save of the final state. Flush runs a
// pending save immediately, which is how shutdown and tests drain it
// without waiting on real timers.
type saveScheduler struct {
	timer   *time.Timer
	fn      func()
	delay   time.Duration
	mu      sync.Mutex
	pending bool
	stopped bool
}

func newSaveScheduler(delay time.Duration, fn func()) *saveScheduler {
	return &saveScheduler{delay: delay, fn: fn}
}

// Schedule arms (or re-arms) the debounce timer.
func (s *saveScheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fire)
}

func (s *saveScheduler) fire() {
	s.mu.Lock()
	if !s.pending || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()

	s.fn()
}

// Flush cancels the timer and runs a pending save now.
func (s *saveScheduler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	run := s.pending && !s.stopped
	s.pending = false
	s.mu.Unlock()

	if run {
		s.fn()
	}
}

// Stop cancels any pending save without running it.
func (s *saveScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
	}
}
