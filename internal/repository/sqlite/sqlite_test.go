package sqlite

import (
	"testing"
)

// newTestDB returns a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// New already migrated once; a second run must not fail on existing tables.
	if err := db.migrate(); err != nil {
		t.Fatalf("migrate() second run error = %v", err)
	}
}
