// Package state holds the live application state and applies every
// mutation to it. Consumers read snapshots and subscribe to changes;
// persistence happens behind a debounced scheduler so mutations are never
// blocked by storage.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wealthcommand/wealth-command/internal/model"
	"github.com/wealthcommand/wealth-command/internal/persist"
)

// DefaultSaveDelay is the debounce window for persisting state changes.
const DefaultSaveDelay = 500 * time.Millisecond

// DefaultCleanupInterval is how often the background cleanup task runs.
const DefaultCleanupInterval = 7 * 24 * time.Hour

// Persister is the façade surface the manager depends on.
type Persister interface {
	SaveAppState(ctx context.Context, s *model.AppState)
	LoadAppState(ctx context.Context) *model.AppState
	CleanupOldData(ctx context.Context) error
}

// Subscriber is notified synchronously after every state change. The
// received state is shared and must be treated as read-only; changes go
// through the manager's mutator methods.
type Subscriber func(*model.AppState)

// Manager owns the live AppState. It is the only component that mutates
// it; the persister only ever sees serialized copies.
type Manager struct {
	state       *model.AppState
	persister   Persister
	sched       *saveScheduler
	now         func() time.Time
	subs        map[int]Subscriber
	cleanupStop chan struct{}
	nextSubID   int
	mu          sync.RWMutex
}

// Options configures a Manager.
type Options struct {
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
	// SaveDelay is the persistence debounce window.
	SaveDelay time.Duration
}

// NewManager creates a manager bound to the given persister. Call Load
// before using it.
func NewManager(p Persister, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	delay := opts.SaveDelay
	if delay <= 0 {
		delay = DefaultSaveDelay
	}

	m := &Manager{
		persister: p,
		now:       now,
		subs:      make(map[int]Subscriber),
	}
	m.sched = newSaveScheduler(delay, m.persist)
	return m
}

// Load restores the state through the persister's fallback chain. The
// manager is not ready until Load has returned.
func (m *Manager) Load(ctx context.Context) {
	state := m.persister.LoadAppState(ctx)
	state.Normalize()

	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// State returns the live state. It is shared, not a copy: treat it as
// read-only and use mutator methods for changes.
func (m *Manager) State() *model.AppState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers an observer invoked after every state change. The
// returned function removes it.
func (m *Manager) Subscribe(fn Subscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// StatePatch is a typed partial update for top-level scalar state.
type StatePatch struct {
	Currency    *string
	Theme       *string
	Preferences *model.Preferences
}

// SetState shallow-merges the patch into the state, notifies subscribers
// and schedules a persist.
func (m *Manager) SetState(patch StatePatch) {
	m.UpdateState(func(s *model.AppState) {
		if patch.Currency != nil {
			s.Currency = *patch.Currency
		}
		if patch.Theme != nil {
			s.Theme = *patch.Theme
		}
		if patch.Preferences != nil {
			s.Preferences = *patch.Preferences
		}
	})
}

// UpdateState applies a compound mutation, notifies subscribers and
// schedules a persist. The mutation succeeds in memory regardless of
// whether the eventual save does.
func (m *Manager) UpdateState(fn func(*model.AppState)) {
	m.mu.Lock()
	fn(m.state)
	state := m.state
	subs := make([]Subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
	m.sched.Schedule()
}

// persist captures the state when the debounce timer fires. The persister
// gets a struct copy taken under the lock, never the live pointer: the
// timer goroutine reads it while mutators keep landing. Mutators rebuild
// slices and maps copy-on-write, so the copy is a consistent snapshot.
// Save failures are the persister's to log; memory stays ahead.
func (m *Manager) persist() {
	m.mu.RLock()
	if m.state == nil {
		m.mu.RUnlock()
		return
	}
	snapshot := *m.state
	m.mu.RUnlock()

	m.persister.SaveAppState(context.Background(), &snapshot)
}

// Flush runs any pending save immediately. Used on shutdown and in tests.
func (m *Manager) Flush() {
	m.sched.Flush()
}

// StartCleanup launches the periodic retention task. It stops when ctx is
// canceled or Close is called.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	m.mu.Lock()
	if m.cleanupStop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.cleanupStop = stop
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				m.runCleanup(ctx)
			}
		}
	}()
}

// runCleanup prunes old data in storage, then mirrors the pruning in the
// live state. Without the second step the next clear-and-rewrite save
// would restore everything storage just deleted.
func (m *Manager) runCleanup(ctx context.Context) {
	if err := m.persister.CleanupOldData(ctx); err != nil {
		slog.Warn("periodic cleanup failed", "error", err)
		return
	}

	cutoff := m.now().AddDate(0, -persist.RetentionMonths, 0).Format("2006-01-02")

	m.mu.RLock()
	stale := false
	for _, t := range m.state.Transactions {
		if t.Date < cutoff {
			stale = true
			break
		}
	}
	m.mu.RUnlock()
	if !stale {
		return
	}

	m.UpdateState(func(s *model.AppState) {
		kept := make([]model.Transaction, 0, len(s.Transactions))
		for _, t := range s.Transactions {
			if t.Date >= cutoff {
				kept = append(kept, t)
			}
		}
		s.Transactions = kept
	})
}

// Close flushes any pending save and stops background work.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.cleanupStop != nil {
		close(m.cleanupStop)
		m.cleanupStop = nil
	}
	m.mu.Unlock()

	m.sched.Flush()
	m.sched.Stop()
}
