package db

import (
	"context"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// The pool is pinned to one connection because every in-memory connection
// would otherwise see its own empty database.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := Open(DialectSQLite, ":memory:", PoolOptions{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := EnsureSchema(context.Background(), d); err != nil {
		d.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { d.Close() })

	return d
}
