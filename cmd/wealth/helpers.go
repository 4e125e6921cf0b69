package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/wealthcommand/wealth-command/internal/config"
	"github.com/wealthcommand/wealth-command/internal/persist"
	"github.com/wealthcommand/wealth-command/internal/state"
)

func dataDir() (string, error) {
	if dir := viper.GetString("data.dir"); dir != "" {
		return config.ExpandPath(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "wealth"), nil
}

func openFacade(ctx context.Context) (*persist.Facade, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}

	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = filepath.Join(dir, "wealth.db")
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	kvPath := viper.GetString("backup.path")
	if kvPath == "" {
		kvPath = filepath.Join(dir, "wealth_backup.json")
	} else {
		kvPath = config.ExpandPath(kvPath)
	}

	return persist.Open(ctx, dbPath, kvPath)
}

func openManager(ctx context.Context) (*state.Manager, *persist.Facade, error) {
	facade, err := openFacade(ctx)
	if err != nil {
		return nil, nil, err
	}

	m := state.NewManager(facade, state.Options{})
	m.Load(ctx)
	return m, facade, nil
}
