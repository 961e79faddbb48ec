// Package conflict simulates a second writer racing a controller.
//
// The Injector issues raw SQL through the database handle, bypassing every
// controller and every precondition the store enforces, exactly like an
// independent process updating the same row. Controllers only use it when
// built with locking.WithInjector, so the production wiring has to opt in.
package conflict

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/rowlock/internal/workitem"
)

// DefaultAssignee is the value the simulated writer assigns.
const DefaultAssignee = "John Stevens"

// Injector performs unconditional writes on behalf of a simulated concurrent
// writer.
type Injector struct {
	db       *sql.DB
	assignee string
	logger   *slog.Logger
	count    atomic.Int64
}

// Option configures an Injector.
type Option func(*Injector)

// WithAssignee overrides DefaultAssignee.
func WithAssignee(name string) Option {
	return func(i *Injector) {
		if name != "" {
			i.assignee = name
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an injector writing through db.
func New(db *sql.DB, opts ...Option) *Injector {
	i := &Injector{
		db:       db,
		assignee: DefaultAssignee,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Assignee returns the value written by the simulated writer.
func (i *Injector) Assignee() string {
	return i.assignee
}

// Count returns how many injected writes were applied.
func (i *Injector) Count() int64 {
	return i.count.Load()
}

// ForceConcurrentWrite updates record id in the strategy's collection as an
// outside writer would. For the concurrency-token collection the writer
// also advances the version, as a well-behaved writer must; the row-version
// stamp changes through the store's trigger.
//
// If the record is held in an exclusive scope this call blocks until the
// scope ends and then applies on top of the committed value.
func (i *Injector) ForceConcurrentWrite(ctx context.Context, strategy workitem.Strategy, id workitem.ID) error {
	var query string
	switch strategy {
	case workitem.Pessimistic:
		query = `UPDATE work_items SET assigned_to = ? WHERE id = ?`
	case workitem.RowVersion:
		query = `UPDATE work_items_with_row_version SET assigned_to = ? WHERE id = ?`
	case workitem.ConcurrencyToken:
		query = `UPDATE work_items_with_concurrency_token SET assigned_to = ?, version = version + 1 WHERE id = ?`
	default:
		return fmt.Errorf("force concurrent write: unknown strategy %q", strategy)
	}

	result, err := i.db.ExecContext(ctx, query, i.assignee, id)
	if err != nil {
		return fmt.Errorf("force concurrent write (strategy=%s, id=%d): %w", strategy, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("force concurrent write: rows affected: %w", err)
	}
	if n > 0 {
		i.count.Add(1)
	}

	i.logger.Debug("injected concurrent write",
		"strategy", strategy,
		"id", id,
		"assigned_to", i.assignee,
		"rows", n,
	)
	return nil
}
