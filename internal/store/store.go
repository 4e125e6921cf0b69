// Package store provides keyed-record persistence over named collections.
//
// Two implementations exist: SQLiteStore, the structured primary backend,
// and FallbackStore, a flat key-value rendition with the same contract.
// Adapters own no domain semantics; callers supply opaque JSON documents
// together with the secondary index values to file them under.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Collection names used by the persistence façade.
const (
	Transactions       = "transactions"
	Categories         = "categories"
	MonthlyBudgets     = "monthlyBudgets"
	FutureTransactions = "futureTransactions"
	Loans              = "loans"
	AnalyticsCache     = "analyticsCache"
	Settings           = "settings"
)

// Collections lists every collection a full-state save touches.
var Collections = []string{
	Transactions,
	Categories,
	MonthlyBudgets,
	FutureTransactions,
	Loans,
	AnalyticsCache,
	Settings,
}

// Secondary index names accepted by Query.
const (
	IndexDate     = "date"
	IndexType     = "type"
	IndexCategory = "category"
)

// Storage errors.
var (
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrNotFound           = errors.New("record not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrUnknownIndex       = errors.New("unknown index name")
)

// Index holds the secondary index values extracted from a record by its
// owner. Empty values are simply not indexed.
type Index struct {
	Date     string
	Type     string
	Category string
}

// Record is one keyed document in a collection.
type Record struct {
	UpdatedAt time.Time
	Key       string
	Data      json.RawMessage
	Index     Index
}

// Query filters GetAll by a single secondary index range. Min and Max are
// inclusive; either may be empty to leave that side unbounded.
type Query struct {
	Index string
	Min   string
	Max   string
}

// Store is the uniform CRUD contract both backends implement. The backend
// is chosen once at startup and injected into the façade.
type Store interface {
	// Init prepares the backend (schema creation, migrations). It must
	// complete before any other call is issued.
	Init(ctx context.Context) error
	// Add inserts a record, failing with ErrDuplicateKey if the key exists.
	Add(ctx context.Context, collection string, rec Record) error
	// Get returns the record or nil if absent.
	Get(ctx context.Context, collection, key string) (*Record, error)
	// GetAll returns all records in insertion order, optionally filtered
	// by a secondary index range.
	GetAll(ctx context.Context, collection string, q *Query) ([]Record, error)
	// Update shallow-merges the partial JSON document into the stored one
	// and stamps UpdatedAt. Fails with ErrNotFound if the key is absent.
	// Non-empty index values in idx replace the stored ones.
	Update(ctx context.Context, collection, key string, partial json.RawMessage, idx *Index) error
	// Delete removes a record. Idempotent: succeeds even if absent.
	Delete(ctx context.Context, collection, key string) error
	// Clear empties a collection.
	Clear(ctx context.Context, collection string) error
	// Replace clears and rewrites each named collection, transactionally
	// where the backend supports it.
	Replace(ctx context.Context, collections map[string][]Record) error
	Close() error
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// indexValue selects the named index value from an Index.
func indexValue(idx Index, name string) (string, error) {
	switch name {
	case IndexDate:
		return idx.Date, nil
	case IndexType:
		return idx.Type, nil
	case IndexCategory:
		return idx.Category, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownIndex, name)
	}
}

// mergeDocuments shallow-merges the top-level fields of partial into doc.
func mergeDocuments(doc, partial json.RawMessage) (json.RawMessage, error) {
	var base map[string]json.RawMessage
	if err := json.Unmarshal(doc, &base); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(partial, &patch); err != nil {
		return nil, fmt.Errorf("failed to decode partial document: %w", err)
	}

	for k, v := range patch {
		base[k] = v
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged document: %w", err)
	}
	return merged, nil
}
