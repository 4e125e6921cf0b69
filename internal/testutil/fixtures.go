// Package testutil provides shared fixtures: in-memory stores, façades
// and managers wired together with automatic cleanup.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/wealthcommand/wealth-command/internal/persist"
	"github.com/wealthcommand/wealth-command/internal/state"
	"github.com/wealthcommand/wealth-command/internal/store"
)

// SetupTestStore creates an in-memory SQLite store with migrations
// applied and cleanup registered.
func SetupTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// TestFacade bundles a façade with its backing stores for inspection.
type TestFacade struct {
	Facade  *persist.Facade
	Primary *store.SQLiteStore
	KV      *store.MemKV
}

// SetupTestFacade creates a façade over an in-memory SQLite store and an
// in-memory KV snapshot target. now may be nil for the real clock.
func SetupTestFacade(t *testing.T, now func() time.Time) *TestFacade {
	t.Helper()

	primary := SetupTestStore(t)
	kv := store.NewMemKV()
	return &TestFacade{
		Facade:  persist.New(primary, kv, persist.Options{Now: now}),
		Primary: primary,
		KV:      kv,
	}
}

// SetupTestManager creates a loaded state manager over a fresh test
// façade with a short debounce delay.
func SetupTestManager(t *testing.T, now func() time.Time) (*state.Manager, *TestFacade) {
	t.Helper()

	tf := SetupTestFacade(t, now)
	m := state.NewManager(tf.Facade, state.Options{
		Now:       now,
		SaveDelay: 10 * time.Millisecond,
	})
	m.Load(context.Background())

	t.Cleanup(m.Close)
	return m, tf
}
