package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "assetflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	for _, table := range Tables {
		var name string
		err := conn.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		assert.NoError(t, err, "table %s missing", table)
	}

	version, dirty, err := SchemaVersion(conn)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetflow.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	second.Close()
}

func TestGetSchemaSQL_ContainsPendingIndex(t *testing.T) {
	schema := GetSchemaSQL()
	assert.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS idx_transfers_one_pending")
	assert.False(t, strings.Contains(schema, "DROP TABLE"), "down migrations must not leak into the schema")
}

func TestSeedFixtures(t *testing.T) {
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, SeedFixtures(conn))

	var assets, pending int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM assets").Scan(&assets))
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM transfers WHERE approver_id IS NULL AND rejection_reason IS NULL AND effectuated = 0",
	).Scan(&pending))
	assert.Equal(t, 5, assets)
	assert.Equal(t, 1, pending)
}
