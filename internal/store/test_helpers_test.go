package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rowlock/internal/workitem"
)

// createTestStore creates a new file-backed store in a temp dir and seeds
// the default items.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	return createTestStoreConfig(t, Config{})
}

func createTestStoreConfig(t *testing.T, cfg Config) *Store {
	t.Helper()
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	s, err := OpenConfig(cfg)
	if err != nil {
		t.Fatalf("OpenConfig() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.Seed(context.Background(), DefaultSeed()); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}

// rawAssign writes around every precondition, the way a concurrent writer
// outside this process would.
func rawAssign(t *testing.T, s *Store, table string, id workitem.ID, assignedTo string) {
	t.Helper()
	if _, err := s.db.Exec("UPDATE "+table+" SET assigned_to = ? WHERE id = ?", assignedTo, id); err != nil {
		t.Fatalf("raw update of %s/%d failed: %v", table, id, err)
	}
}
