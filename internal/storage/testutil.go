package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory snapshot database with the full schema.
// Cleanup is registered with t.Cleanup().
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// NewTestDBFile creates a file-based snapshot database in t.TempDir() and
// returns it with its path.
func NewTestDBFile(t testing.TB) (*sql.DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "constructs.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}
