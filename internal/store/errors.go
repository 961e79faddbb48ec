package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/rowlock/internal/workitem"
)

// classify wraps a driver error for op. Lock contention that outlived the
// busy timeout is transient; context errors keep their identity so callers
// can tell cancellation apart; everything else is a generic store error.
func classify(op string, s workitem.Strategy, id workitem.ID, err error) error {
	if err == nil {
		return nil
	}

	var we *workitem.Error
	if errors.As(err, &we) {
		return err
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return workitem.NewTransientError(op, s, id, err)
	}

	return &workitem.Error{Code: workitem.ErrCodeStore, Op: op, Strategy: s, ID: id, Err: err}
}
