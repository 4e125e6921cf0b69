package state

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSaveScheduler_CoalescesBurst(t *testing.T) {
	var fires atomic.Int32
	s := newSaveScheduler(time.Hour, func() { fires.Add(1) })

	for i := 0; i < 10; i++ {
		s.Schedule()
	}
	s.Flush()

	if got := fires.Load(); got != 1 {
		t.Fatalf("expected 1 fire for a burst of schedules, got %d", got)
	}
}

func TestSaveScheduler_TimerFires(t *testing.T) {
	fired := make(chan struct{})
	s := newSaveScheduler(5*time.Millisecond, func() { close(fired) })

	s.Schedule()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("scheduler never fired")
	}
}

func TestSaveScheduler_FlushWithoutPendingIsNoop(t *testing.T) {
	var fires atomic.Int32
	s := newSaveScheduler(time.Hour, func() { fires.Add(1) })

	s.Flush()
	s.Schedule()
	s.Flush()
	s.Flush()

	if got := fires.Load(); got != 1 {
		t.Fatalf("expected exactly 1 fire, got %d", got)
	}
}

func TestSaveScheduler_StopDropsPending(t *testing.T) {
	var fires atomic.Int32
	s := newSaveScheduler(time.Hour, func() { fires.Add(1) })

	s.Schedule()
	s.Stop()
	s.Flush()
	s.Schedule()

	if got := fires.Load(); got != 0 {
		t.Fatalf("expected no fires after Stop, got %d", got)
	}
}
