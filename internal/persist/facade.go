// Package persist implements the persistence façade: the only component
// that knows which storage backend serves a call, and that builds
// whole-state semantics on top of per-collection record CRUD.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wealthcommand/wealth-command/internal/model"
	"github.com/wealthcommand/wealth-command/internal/store"
)

// Façade errors.
var (
	// ErrInvalidBackup indicates a backup document missing its required
	// transactions/categories arrays.
	ErrInvalidBackup = errors.New("invalid backup document")
	// ErrUnsupportedFormat indicates an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// BackupKey is the flat-store key holding the whole-state JSON snapshot.
const BackupKey = "wealthcommand_backup"

// RetentionMonths is how far back CleanupOldData keeps transactions.
const RetentionMonths = 3

// Facade mediates between in-memory state and the storage backends. The
// backend choice happens once, in Open; per-call branching is not a thing.
type Facade struct {
	primary store.Store
	kv      store.KV
	now     func() time.Time
}

// Options configures a Facade.
type Options struct {
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// New creates a façade over an already-initialized store and KV backend.
func New(primary store.Store, kv store.KV, opts Options) *Facade {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Facade{
		primary: primary,
		kv:      kv,
		now:     now,
	}
}

// Open probes the structured backend at dbPath and falls back to the flat
// store at kvPath when it is unavailable. The probe happens exactly once;
// the selected backend serves every subsequent call.
func Open(ctx context.Context, dbPath, kvPath string) (*Facade, error) {
	kv, err := store.NewFileKV(kvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open flat store: %w", err)
	}

	var primary store.Store
	sqlStore, err := store.NewSQLiteStore(dbPath)
	if err == nil {
		if initErr := sqlStore.Init(ctx); initErr != nil {
			_ = sqlStore.Close()
			err = initErr
		} else {
			primary = sqlStore
		}
	}
	if primary == nil {
		slog.Warn("structured backend unavailable, using fallback store",
			"path", dbPath, "error", err)
		primary = store.NewFallbackStore(kv, "")
	}

	return New(primary, kv, Options{}), nil
}

// Close releases the primary backend.
func (p *Facade) Close() error {
	return p.primary.Close()
}

// SaveAppState persists the whole state: every collection is cleared and
// rewritten, and a full JSON snapshot goes to the flat store regardless of
// which backend is primary. Best-effort: storage failures are logged,
// never returned, so a mutation path is never blocked by a failed write.
func (p *Facade) SaveAppState(ctx context.Context, s *model.AppState) {
	if err := p.saveState(ctx, s); err != nil {
		slog.Error("failed to save application state", "error", err)
	}
}

func (p *Facade) saveState(ctx context.Context, s *model.AppState) error {
	if s == nil {
		return errors.New("state cannot be nil")
	}

	// Serialize a normalized copy; the caller's state is never mutated.
	cp := *s
	cp.Normalize()
	cp.LastSaved = p.now().UTC()

	cols, err := stateCollections(&cp)
	if err != nil {
		return err
	}

	var firstErr error
	if err := p.primary.Replace(ctx, cols); err != nil {
		firstErr = fmt.Errorf("primary write failed: %w", err)
	}

	// Snapshot backup always goes to the flat store, even when the flat
	// store is also the primary backend.
	snap, err := json.Marshal(toSnapshot(&cp))
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to encode snapshot: %w", err)
		}
	} else if err := p.kv.Set(BackupKey, snap); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("snapshot write failed: %w", err)
	}

	return firstErr
}

// LoadAppState restores the state with the fallback precedence chain:
// structured-non-empty, then flat-store snapshot, then defaults. It never
// fails; the worst case is a default state.
func (p *Facade) LoadAppState(ctx context.Context) *model.AppState {
	state, err := p.loadFromPrimary(ctx)
	if err != nil {
		slog.Warn("primary load failed, trying snapshot", "error", err)
	} else if len(state.Transactions) > 0 || len(state.Categories) > 0 {
		return state
	}

	if snap, ok := p.loadSnapshot(); ok {
		return snap
	}

	if state != nil {
		// Primary was readable but empty and no snapshot exists: a normal
		// first run, or prior data was lost. Either way, defaults.
		slog.Warn("no prior data in any storage source, starting from defaults")
	}
	return model.DefaultState(p.now())
}

func (p *Facade) loadFromPrimary(ctx context.Context) (*model.AppState, error) {
	cols := make(map[string][]store.Record, len(store.Collections))
	for _, collection := range store.Collections {
		if collection == store.AnalyticsCache {
			continue
		}
		records, err := p.primary.GetAll(ctx, collection, nil)
		if err != nil {
			return nil, err
		}
		cols[collection] = records
	}
	return stateFromRecords(cols), nil
}

func (p *Facade) loadSnapshot() (*model.AppState, bool) {
	raw, ok, err := p.kv.Get(BackupKey)
	if err != nil || !ok {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		slog.Warn("flat-store snapshot is corrupt", "error", err)
		return nil, false
	}
	if len(snap.Transactions) == 0 && len(snap.Categories) == 0 {
		return nil, false
	}
	return fromSnapshot(snap), true
}

// CleanupOldData deletes transactions older than the retention window and
// sweeps expired analytics cache entries. Invoked by the state manager's
// background scheduler, not self-scheduled.
func (p *Facade) CleanupOldData(ctx context.Context) error {
	cutoff := p.now().AddDate(0, -RetentionMonths, 0).Format("2006-01-02")

	records, err := p.primary.GetAll(ctx, store.Transactions, &store.Query{
		Index: store.IndexDate,
		Max:   cutoff,
	})
	if err != nil {
		return fmt.Errorf("failed to query old transactions: %w", err)
	}

	removed := 0
	for _, rec := range records {
		if rec.Index.Date >= cutoff {
			continue
		}
		if err := p.primary.Delete(ctx, store.Transactions, rec.Key); err != nil {
			return fmt.Errorf("failed to delete old transaction %s: %w", rec.Key, err)
		}
		removed++
	}

	swept, err := p.sweepExpiredCache(ctx)
	if err != nil {
		return err
	}

	slog.Info("cleanup finished",
		"transactions_removed", removed,
		"cache_entries_swept", swept,
		"cutoff", cutoff)
	return nil
}
