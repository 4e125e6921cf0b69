package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Backup is a full exported snapshot with identifying metadata.
type Backup struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	Snapshot
	Version int `json:"version"`
}

// CreateBackup produces a full snapshot of the currently persisted state.
func (p *Facade) CreateBackup(ctx context.Context) (*Backup, error) {
	state := p.LoadAppState(ctx)
	return &Backup{
		ID:        uuid.NewString(),
		CreatedAt: p.now().UTC(),
		Version:   1,
		Snapshot:  toSnapshot(state),
	}, nil
}

// RestoreBackup validates and applies a backup document. An invalid
// document fails with ErrInvalidBackup before any state is touched; a
// half-applied bad backup is not a thing.
func (p *Facade) RestoreBackup(ctx context.Context, data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	for _, field := range []string{"transactions", "categories"} {
		raw, ok := probe[field]
		if !ok {
			return fmt.Errorf("%w: missing %s array", ErrInvalidBackup, field)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("%w: %s is not an array", ErrInvalidBackup, field)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	return p.saveState(ctx, fromSnapshot(snap))
}
