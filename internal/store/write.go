package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/rowlock/internal/workitem"
)

// UpdateRowVersionItem sets assigned_to only if the stored stamp still equals
// expected, and returns the stamp generated for the new row version.
//
// With preflight enabled the current stamp is read first and a stale one is
// rejected before the UPDATE is issued; otherwise the UPDATE's WHERE clause
// decides. Both paths return an error matching workitem.ErrConflict and leave
// the row untouched.
func (s *Store) UpdateRowVersionItem(ctx context.Context, id workitem.ID, assignedTo string, expected workitem.Stamp) (workitem.Stamp, error) {
	const op = "update row-version item"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return workitem.Stamp{}, classify(op+": begin tx", workitem.RowVersion, id, err)
	}
	defer tx.Rollback() // No-op if committed

	if s.preflight {
		var current string
		err := tx.QueryRowContext(ctx, `
			SELECT row_version FROM work_items_with_row_version WHERE id = ?
		`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return workitem.Stamp{}, workitem.NewNotFoundError(op, workitem.RowVersion, id)
		}
		if err != nil {
			return workitem.Stamp{}, classify(op+": preflight", workitem.RowVersion, id, err)
		}
		if !workitem.StampOf(current).Equal(expected) {
			s.preflightRejects.Add(1)
			return workitem.Stamp{}, workitem.NewConflictError(op, workitem.RowVersion, id)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE work_items_with_row_version
		SET assigned_to = ?
		WHERE id = ? AND row_version = ?
	`, assignedTo, id, expected.Raw())
	if err != nil {
		return workitem.Stamp{}, classify(op, workitem.RowVersion, id, err)
	}

	if err := s.checkApplied(ctx, tx, result, TableRowVersionItems, workitem.RowVersion, id, op); err != nil {
		return workitem.Stamp{}, err
	}

	var next string
	err = tx.QueryRowContext(ctx, `
		SELECT row_version FROM work_items_with_row_version WHERE id = ?
	`, id).Scan(&next)
	if err != nil {
		return workitem.Stamp{}, classify(op+": read stamp", workitem.RowVersion, id, err)
	}

	if err := tx.Commit(); err != nil {
		return workitem.Stamp{}, classify(op+": commit", workitem.RowVersion, id, err)
	}
	s.casCommits.Add(1)

	return workitem.StampOf(next), nil
}

// UpdateTokenItem sets assigned_to and version = next only if the stored
// version still equals expected. next must be greater than expected.
func (s *Store) UpdateTokenItem(ctx context.Context, id workitem.ID, assignedTo string, expected, next int64) error {
	const op = "update token item"

	if next <= expected {
		return &workitem.Error{
			Code:     workitem.ErrCodeInvalidVersion,
			Op:       op,
			Strategy: workitem.ConcurrencyToken,
			ID:       id,
			Err:      fmt.Errorf("next version %d does not advance expected version %d", next, expected),
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op+": begin tx", workitem.ConcurrencyToken, id, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE work_items_with_concurrency_token
		SET assigned_to = ?, version = ?
		WHERE id = ? AND version = ?
	`, assignedTo, next, id, expected)
	if err != nil {
		return classify(op, workitem.ConcurrencyToken, id, err)
	}

	if err := s.checkApplied(ctx, tx, result, TableTokenItems, workitem.ConcurrencyToken, id, op); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(op+": commit", workitem.ConcurrencyToken, id, err)
	}
	s.casCommits.Add(1)

	return nil
}

// checkApplied turns a compare-and-set that matched no row into NotFound or
// Conflict. It runs inside the caller's transaction so the answer describes
// the same state the UPDATE saw.
func (s *Store) checkApplied(ctx context.Context, tx *sql.Tx, result sql.Result, table string, strategy workitem.Strategy, id workitem.ID, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(op+": rows affected", strategy, id, err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return classify(op+": check exists", strategy, id, err)
	}
	if exists == 0 {
		return workitem.NewNotFoundError(op, strategy, id)
	}

	s.casRejects.Add(1)
	return workitem.NewConflictError(op, strategy, id)
}
