package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the Store interface using SQLite. Every
// collection lives in a single records table keyed by (collection, key),
// with extracted index columns backing range queries.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %v", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorageUnavailable, err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrStorageUnavailable, err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Init applies pending schema migrations. Must run to completion before
// any other call.
func (s *SQLiteStore) Init(ctx context.Context) error {
	return s.Migrate(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Add inserts a record, failing with ErrDuplicateKey if the key exists.
func (s *SQLiteStore) Add(ctx context.Context, collection string, rec Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(collection, "collection"); err != nil {
		return err
	}
	if err := validateString(rec.Key, "key"); err != nil {
		return err
	}

	return s.addTx(ctx, s.db, collection, rec)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) addTx(ctx context.Context, e execer, collection string, rec Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := e.ExecContext(ctx, `
		INSERT INTO records (collection, key, data, idx_date, idx_type, idx_category, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		collection, rec.Key, string(rec.Data),
		nullable(rec.Index.Date), nullable(rec.Index.Type), nullable(rec.Index.Category),
		updatedAt,
	)
	if err != nil {
		// Only key conflicts map to ErrDuplicateKey; other constraint
		// violations (NOT NULL, CHECK) surface as plain storage errors.
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, collection, rec.Key)
		}
		return fmt.Errorf("failed to insert record %s/%s: %w", collection, rec.Key, err)
	}
	return nil
}

// Get returns the record or nil if absent.
func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (*Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var rec Record
	var data string
	var idxDate, idxType, idxCategory sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT key, data, idx_date, idx_type, idx_category, updated_at
		FROM records
		WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&rec.Key, &data, &idxDate, &idxType, &idxCategory, &rec.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record %s/%s: %w", collection, key, err)
	}

	rec.Data = json.RawMessage(data)
	rec.Index = Index{
		Date:     idxDate.String,
		Type:     idxType.String,
		Category: idxCategory.String,
	}
	return &rec, nil
}

// GetAll returns all records in insertion order, optionally filtered by a
// secondary index range.
func (s *SQLiteStore) GetAll(ctx context.Context, collection string, q *Query) ([]Record, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(collection, "collection"); err != nil {
		return nil, err
	}

	query := `
		SELECT key, data, idx_date, idx_type, idx_category, updated_at
		FROM records
		WHERE collection = ?`
	args := []any{collection}

	if q != nil {
		col, err := indexColumn(q.Index)
		if err != nil {
			return nil, err
		}
		if q.Min != "" {
			query += fmt.Sprintf(" AND %s >= ?", col)
			args = append(args, q.Min)
		}
		if q.Max != "" {
			query += fmt.Sprintf(" AND %s <= ?", col)
			args = append(args, q.Max)
		}
	}

	query += " ORDER BY rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var data string
		var idxDate, idxType, idxCategory sql.NullString
		if err := rows.Scan(&rec.Key, &data, &idxDate, &idxType, &idxCategory, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Data = json.RawMessage(data)
		rec.Index = Index{
			Date:     idxDate.String,
			Type:     idxType.String,
			Category: idxCategory.String,
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection %s: %w", collection, err)
	}
	return records, nil
}

// Update shallow-merges partial into the stored document and stamps
// updated_at. Fails with ErrNotFound if the key is absent.
func (s *SQLiteStore) Update(ctx context.Context, collection, key string, partial json.RawMessage, idx *Index) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	var idxDate, idxType, idxCategory sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT data, idx_date, idx_type, idx_category
		FROM records
		WHERE collection = ? AND key = ?`,
		collection, key,
	).Scan(&data, &idxDate, &idxType, &idxCategory)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
	}
	if err != nil {
		return fmt.Errorf("failed to query record %s/%s: %w", collection, key, err)
	}

	merged, err := mergeDocuments(json.RawMessage(data), partial)
	if err != nil {
		return fmt.Errorf("failed to merge record %s/%s: %w", collection, key, err)
	}

	newIdx := Index{Date: idxDate.String, Type: idxType.String, Category: idxCategory.String}
	if idx != nil {
		if idx.Date != "" {
			newIdx.Date = idx.Date
		}
		if idx.Type != "" {
			newIdx.Type = idx.Type
		}
		if idx.Category != "" {
			newIdx.Category = idx.Category
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE records
		SET data = ?, idx_date = ?, idx_type = ?, idx_category = ?, updated_at = ?
		WHERE collection = ? AND key = ?`,
		string(merged),
		nullable(newIdx.Date), nullable(newIdx.Type), nullable(newIdx.Category),
		time.Now().UTC(),
		collection, key,
	)
	if err != nil {
		return fmt.Errorf("failed to update record %s/%s: %w", collection, key, err)
	}

	return tx.Commit()
}

// Delete removes a record. Idempotent: succeeds even if the key is absent.
func (s *SQLiteStore) Delete(ctx context.Context, collection, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE collection = ? AND key = ?`,
		collection, key)
	if err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", collection, key, err)
	}
	return nil
}

// Clear empties a collection.
func (s *SQLiteStore) Clear(ctx context.Context, collection string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(collection, "collection"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, collection)
	if err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	return nil
}

// Replace clears and rewrites each named collection inside a single
// transaction.
func (s *SQLiteStore) Replace(ctx context.Context, collections map[string][]Record) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for collection, records := range collections {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, collection); err != nil {
			return fmt.Errorf("failed to clear collection %s: %w", collection, err)
		}
		for _, rec := range records {
			if err := s.addTx(ctx, tx, collection, rec); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func indexColumn(name string) (string, error) {
	switch name {
	case IndexDate:
		return "idx_date", nil
	case IndexType:
		return "idx_type", nil
	case IndexCategory:
		return "idx_category", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownIndex, name)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
