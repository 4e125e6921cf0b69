package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// FallbackStore implements the Store interface over a flat KV store.
// Each collection is serialized as one JSON array under a single key, so
// every mutation rewrites the whole collection. Used when the structured
// backend is unavailable, and as the snapshot target for backups.
type FallbackStore struct {
	kv     KV
	prefix string
	mu     sync.Mutex
}

// storedRecord is the serialized envelope for one record in a collection
// array.
type storedRecord struct {
	UpdatedAt time.Time       `json:"updatedAt"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	Date      string          `json:"date,omitempty"`
	Type      string          `json:"type,omitempty"`
	Category  string          `json:"category,omitempty"`
}

// NewFallbackStore creates a fallback store over the given KV backend.
// Collection keys are namespaced with prefix.
func NewFallbackStore(kv KV, prefix string) *FallbackStore {
	if prefix == "" {
		prefix = "wealthcommand_"
	}
	return &FallbackStore{kv: kv, prefix: prefix}
}

// Init is a no-op; the flat store needs no schema.
func (f *FallbackStore) Init(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (f *FallbackStore) Close() error {
	return nil
}

func (f *FallbackStore) collectionKey(collection string) string {
	return f.prefix + collection
}

func (f *FallbackStore) load(collection string) ([]storedRecord, error) {
	raw, ok, err := f.kv.Get(f.collectionKey(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	var records []storedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", collection, err)
	}
	return records, nil
}

func (f *FallbackStore) save(collection string, records []storedRecord) error {
	if records == nil {
		records = []storedRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}
	if err := f.kv.Set(f.collectionKey(collection), raw); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", collection, err)
	}
	return nil
}

func toStored(rec Record) storedRecord {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	return storedRecord{
		Key:       rec.Key,
		Data:      rec.Data,
		Date:      rec.Index.Date,
		Type:      rec.Index.Type,
		Category:  rec.Index.Category,
		UpdatedAt: updatedAt,
	}
}

func fromStored(sr storedRecord) Record {
	return Record{
		Key:       sr.Key,
		Data:      sr.Data,
		UpdatedAt: sr.UpdatedAt,
		Index: Index{
			Date:     sr.Date,
			Type:     sr.Type,
			Category: sr.Category,
		},
	}
}

// Add inserts a record, failing with ErrDuplicateKey if the key exists.
func (f *FallbackStore) Add(ctx context.Context, collection string, rec Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(rec.Key, "key"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(collection)
	if err != nil {
		return err
	}
	for _, sr := range records {
		if sr.Key == rec.Key {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, collection, rec.Key)
		}
	}

	records = append(records, toStored(rec))
	return f.save(collection, records)
}

// Get returns the record or nil if absent.
func (f *FallbackStore) Get(ctx context.Context, collection, key string) (*Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(collection)
	if err != nil {
		return nil, err
	}
	for _, sr := range records {
		if sr.Key == key {
			rec := fromStored(sr)
			return &rec, nil
		}
	}
	return nil, nil
}

// GetAll returns all records in insertion order, optionally filtered by a
// secondary index range.
func (f *FallbackStore) GetAll(ctx context.Context, collection string, q *Query) ([]Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.load(collection)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, sr := range stored {
		rec := fromStored(sr)
		if q != nil {
			v, idxErr := indexValue(rec.Index, q.Index)
			if idxErr != nil {
				return nil, idxErr
			}
			if q.Min != "" && v < q.Min {
				continue
			}
			if q.Max != "" && v > q.Max {
				continue
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Update shallow-merges partial into the stored document and stamps
// UpdatedAt. Fails with ErrNotFound if the key is absent.
func (f *FallbackStore) Update(ctx context.Context, collection, key string, partial json.RawMessage, idx *Index) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(collection)
	if err != nil {
		return err
	}

	for i, sr := range records {
		if sr.Key != key {
			continue
		}

		merged, mergeErr := mergeDocuments(sr.Data, partial)
		if mergeErr != nil {
			return fmt.Errorf("failed to merge record %s/%s: %w", collection, key, mergeErr)
		}
		records[i].Data = merged
		records[i].UpdatedAt = time.Now().UTC()
		if idx != nil {
			if idx.Date != "" {
				records[i].Date = idx.Date
			}
			if idx.Type != "" {
				records[i].Type = idx.Type
			}
			if idx.Category != "" {
				records[i].Category = idx.Category
			}
		}
		return f.save(collection, records)
	}

	return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
}

// Delete removes a record. Idempotent: succeeds even if the key is absent.
func (f *FallbackStore) Delete(ctx context.Context, collection, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load(collection)
	if err != nil {
		return err
	}

	kept := records[:0]
	removed := false
	for _, sr := range records {
		if sr.Key == key {
			removed = true
			continue
		}
		kept = append(kept, sr)
	}
	if !removed {
		return nil
	}
	return f.save(collection, kept)
}

// Clear empties a collection.
func (f *FallbackStore) Clear(ctx context.Context, collection string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.save(collection, nil)
}

// Replace clears and rewrites each named collection. Writes are per
// collection; a crash mid-replace can leave collections inconsistent.
func (f *FallbackStore) Replace(ctx context.Context, collections map[string][]Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for collection, records := range collections {
		stored := make([]storedRecord, 0, len(records))
		for _, rec := range records {
			stored = append(stored, toStored(rec))
		}
		if err := f.save(collection, stored); err != nil {
			return err
		}
	}
	return nil
}
