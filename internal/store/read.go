package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/rowlock/internal/workitem"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReadWorkItem retrieves a record of the pessimistic collection outside any
// scope. Returns an error matching workitem.ErrNotFound if absent.
func (s *Store) ReadWorkItem(ctx context.Context, id workitem.ID) (workitem.WorkItem, error) {
	return readWorkItem(ctx, s.db, id)
}

// ReadRowVersionItem retrieves a record together with its current stamp.
func (s *Store) ReadRowVersionItem(ctx context.Context, id workitem.ID) (workitem.RowVersionItem, error) {
	var item workitem.RowVersionItem
	var stamp string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assigned_to, row_version
		FROM work_items_with_row_version
		WHERE id = ?
	`, id).Scan(&item.ID, &item.AssignedTo, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return workitem.RowVersionItem{}, workitem.NewNotFoundError("read row-version item", workitem.RowVersion, id)
	}
	if err != nil {
		return workitem.RowVersionItem{}, classify("read row-version item", workitem.RowVersion, id, err)
	}
	item.RowVersion = workitem.StampOf(stamp)
	return item, nil
}

// ReadTokenItem retrieves a record together with its integer version.
func (s *Store) ReadTokenItem(ctx context.Context, id workitem.ID) (workitem.TokenItem, error) {
	var item workitem.TokenItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, assigned_to, version
		FROM work_items_with_concurrency_token
		WHERE id = ?
	`, id).Scan(&item.ID, &item.AssignedTo, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return workitem.TokenItem{}, workitem.NewNotFoundError("read token item", workitem.ConcurrencyToken, id)
	}
	if err != nil {
		return workitem.TokenItem{}, classify("read token item", workitem.ConcurrencyToken, id, err)
	}
	return item, nil
}

func readWorkItem(ctx context.Context, q queryer, id workitem.ID) (workitem.WorkItem, error) {
	var item workitem.WorkItem
	err := q.QueryRowContext(ctx, `
		SELECT id, assigned_to
		FROM work_items
		WHERE id = ?
	`, id).Scan(&item.ID, &item.AssignedTo)
	if errors.Is(err, sql.ErrNoRows) {
		return workitem.WorkItem{}, workitem.NewNotFoundError("read work item", workitem.Pessimistic, id)
	}
	if err != nil {
		return workitem.WorkItem{}, classify("read work item", workitem.Pessimistic, id, err)
	}
	return item, nil
}

// Snapshot is a strategy-independent view of one record, used by the CLI,
// the HTTP surface and the scenario harness.
type Snapshot struct {
	Strategy   workitem.Strategy `json:"strategy" yaml:"strategy"`
	ID         workitem.ID       `json:"id" yaml:"id"`
	AssignedTo string            `json:"assignedTo" yaml:"assigned_to"`
	RowVersion string            `json:"rowVersion,omitempty" yaml:"row_version,omitempty"`
	Version    *int64            `json:"version,omitempty" yaml:"version,omitempty"`
}

// ReadSnapshot reads the record of the given strategy's collection.
func (s *Store) ReadSnapshot(ctx context.Context, strategy workitem.Strategy, id workitem.ID) (Snapshot, error) {
	switch strategy {
	case workitem.Pessimistic:
		item, err := s.ReadWorkItem(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Strategy: strategy, ID: item.ID, AssignedTo: item.AssignedTo}, nil
	case workitem.RowVersion:
		item, err := s.ReadRowVersionItem(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{Strategy: strategy, ID: item.ID, AssignedTo: item.AssignedTo, RowVersion: item.RowVersion.Raw()}, nil
	case workitem.ConcurrencyToken:
		item, err := s.ReadTokenItem(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		v := item.Version
		return Snapshot{Strategy: strategy, ID: item.ID, AssignedTo: item.AssignedTo, Version: &v}, nil
	}
	_, err := TableFor(strategy)
	return Snapshot{}, err
}
