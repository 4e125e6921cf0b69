package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	var version int
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_Idempotent(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "second run must be a no-op")
}

func TestMigrate_VersionsAreSequential(t *testing.T) {
	last := 0
	for _, m := range migrations {
		require.Equal(t, last+1, m.Version, "migration versions must be dense and ordered")
		require.NotEmpty(t, m.Description)
		require.NotNil(t, m.Up)
		last = m.Version
	}
	assert.Equal(t, ExpectedSchemaVersion, last)
}
