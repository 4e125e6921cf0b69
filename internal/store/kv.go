package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KV is a flat string-keyed value store, the host's simplest storage
// surface. Values are opaque byte strings, rewritten whole on every Set.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileKV persists the key-value map as a single JSON file. The whole map
// is flushed on every write, mirroring the synchronous flat-store model.
type FileKV struct {
	values map[string]json.RawMessage
	path   string
	mu     sync.Mutex
}

// NewFileKV opens (or creates) the key-value file at path.
func NewFileKV(path string) (*FileKV, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create key-value directory: %w", err)
	}

	kv := &FileKV{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path) // #nosec G304 - caller-controlled config path
	if os.IsNotExist(err) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key-value file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &kv.values); err != nil {
			return nil, fmt.Errorf("failed to decode key-value file: %w", err)
		}
	}

	return kv, nil
}

// Get returns the value stored under key, and whether it was present.
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.values[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set stores value under key and flushes the whole map to disk.
func (f *FileKV) Set(key string, value []byte) error {
	if err := validateString(key, "key"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = json.RawMessage(value)
	return f.flush()
}

// Delete removes key and flushes. Idempotent.
func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *FileKV) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to encode key-value map: %w", err)
	}

	// Write to temporary file first, then atomic rename
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write key-value file: %w", err)
	}
	return os.Rename(tmpPath, f.path)
}

// MemKV is an in-memory KV used in tests and as a last-resort backend.
type MemKV struct {
	values map[string][]byte
	mu     sync.Mutex
}

// NewMemKV creates an empty in-memory key-value store.
func NewMemKV() *MemKV {
	return &MemKV{values: make(map[string][]byte)}
}

// Get returns the value stored under key, and whether it was present.
func (m *MemKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

// Set stores value under key.
func (m *MemKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[key] = cp
	return nil
}

// Delete removes key. Idempotent.
func (m *MemKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
