package sqlite

import (
	"context"
	"net/url"
	"testing"
)

// setupTestDB returns a migrated journal backed by an in-memory database
// private to the calling test. Reader and writer share it through
// cache=shared; WAL does not apply in memory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	target := url.PathEscape(t.Name()) + "?mode=memory&cache=shared"
	db, err := openPair(context.Background(), journalDSN(target))
	if err != nil {
		t.Fatalf("open in-memory journal: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := RunMigrations(db.Writer); err != nil {
		t.Fatalf("migrate in-memory journal: %v", err)
	}
	return db
}
