package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial records schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS records (
					collection TEXT NOT NULL,
					key TEXT NOT NULL,
					data TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (collection, key)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add secondary index columns for range and filter queries",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE records ADD COLUMN idx_date TEXT`,
				`ALTER TABLE records ADD COLUMN idx_type TEXT`,
				`ALTER TABLE records ADD COLUMN idx_category TEXT`,
				`CREATE INDEX idx_records_date ON records(collection, idx_date)`,
				`CREATE INDEX idx_records_type ON records(collection, idx_type)`,
				`CREATE INDEX idx_records_category ON records(collection, idx_category)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Keep updated_at fresh on direct row updates",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TRIGGER update_records_timestamp
				AFTER UPDATE ON records
				FOR EACH ROW
				WHEN NEW.updated_at = OLD.updated_at
				BEGIN
					UPDATE records SET updated_at = CURRENT_TIMESTAMP
					WHERE collection = NEW.collection AND key = NEW.key;
				END
			`)
			if err != nil {
				return fmt.Errorf("failed to create updated_at trigger: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
