package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wealthcommand/wealth-command/internal/config"
	"github.com/wealthcommand/wealth-command/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "wealth", "wealth.db")
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	slog.Info("Starting database migration", "database", dbPath)

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	cmd.Printf("Database schema is at version %d\n", store.ExpectedSchemaVersion)
	return nil
}
