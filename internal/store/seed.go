package store

import (
	"context"
	"fmt"

	"github.com/roach88/rowlock/internal/workitem"
)

// SeedItem is one record to create in every listed collection.
type SeedItem struct {
	ID         workitem.ID `yaml:"id" json:"id"`
	AssignedTo string      `yaml:"assigned_to" json:"assignedTo"`
	Version    int64       `yaml:"version,omitempty" json:"version,omitempty"`
}

// DefaultSeed mirrors the demo data: items 1-3 assigned to Alice at
// version 0.
func DefaultSeed() []SeedItem {
	return []SeedItem{
		{ID: 1, AssignedTo: "Alice"},
		{ID: 2, AssignedTo: "Alice"},
		{ID: 3, AssignedTo: "Alice"},
	}
}

// Seed creates the items in all three collections. Existing ids are left
// untouched, so seeding is idempotent. Returns the number of rows inserted.
func (s *Store) Seed(ctx context.Context, items []SeedItem) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for _, item := range items {
		assignee, err := workitem.NormalizeAssignee(item.AssignedTo)
		if err != nil {
			return 0, fmt.Errorf("seed item %d: %w", item.ID, err)
		}
		if item.Version < 0 {
			return 0, fmt.Errorf("seed item %d: negative version %d", item.ID, item.Version)
		}

		stmts := []struct {
			query string
			args  []any
		}{
			{`INSERT INTO work_items (id, assigned_to) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
				[]any{item.ID, assignee}},
			{`INSERT INTO work_items_with_row_version (id, assigned_to) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
				[]any{item.ID, assignee}},
			{`INSERT INTO work_items_with_concurrency_token (id, assigned_to, version) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
				[]any{item.ID, assignee, item.Version}},
		}
		for _, st := range stmts {
			result, err := tx.ExecContext(ctx, st.query, st.args...)
			if err != nil {
				return 0, fmt.Errorf("seed item %d: %w", item.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("seed item %d: rows affected: %w", item.ID, err)
			}
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed: commit: %w", err)
	}
	return inserted, nil
}
