package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/rowlock/internal/store"
)

// NewStore opens a file-backed store in t.TempDir(), seeds it with items
// (store.DefaultSeed() if none are given) and closes it on cleanup.
func NewStore(t testing.TB, cfg store.Config, items ...store.SeedItem) *store.Store {
	t.Helper()

	cfg.Path = filepath.Join(t.TempDir(), "rowlock.db")
	s, err := store.OpenConfig(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if len(items) == 0 {
		items = store.DefaultSeed()
	}
	if _, err := s.Seed(context.Background(), items); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return s
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
