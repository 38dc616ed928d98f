package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func openTestDB(t *testing.T) (*sql.DB, *SQLitePersistence) {
	t.Helper()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	db, p, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, p
}

func TestInitDatabase_CreatesKVTable(t *testing.T) {
	db, _ := openTestDB(t)

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='kv'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
}

func TestSQLitePersistence_GetMissing(t *testing.T) {
	_, p := openTestDB(t)

	_, err := p.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLitePersistence_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	_, p := openTestDB(t)

	require.NoError(t, p.Set(ctx, "k", "v1"))
	require.NoError(t, p.Set(ctx, "k", "v2"))

	got, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}
