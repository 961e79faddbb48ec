package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/roach88/rowlock/internal/workitem"
)

// ScopeState tracks an exclusive scope through its lifecycle.
type ScopeState int

const (
	ScopeIdle ScopeState = iota
	ScopeAcquired
	ScopeCommitted
	ScopeRolledBack
)

func (s ScopeState) String() string {
	switch s {
	case ScopeIdle:
		return "Idle"
	case ScopeAcquired:
		return "ScopeAcquired"
	case ScopeCommitted:
		return "Committed"
	case ScopeRolledBack:
		return "RolledBack"
	}
	return fmt.Sprintf("ScopeState(%d)", int(s))
}

// Scope is exclusive access to one work item: a per-id guard plus an
// immediate transaction. Callers defer Rollback right after BeginScope;
// Rollback after Commit is a no-op, so the guard is released on every path.
type Scope struct {
	store *Store
	id    workitem.ID
	guard *guard
	tx    *sql.Tx

	mu    sync.Mutex
	state ScopeState
}

func scopeKey(id workitem.ID) string {
	return TableWorkItems + "/" + id.String()
}

// BeginScope blocks until no other scope is held for id, then begins a
// serializable transaction. If ctx is cancelled while waiting, nothing is
// held on return.
func (s *Store) BeginScope(ctx context.Context, id workitem.ID) (*Scope, error) {
	g, err := s.guards.acquire(ctx, scopeKey(id))
	if err != nil {
		return nil, classify("begin scope: acquire guard", workitem.Pessimistic, id, err)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		g.release()
		return nil, classify("begin scope: begin tx", workitem.Pessimistic, id, err)
	}

	return &Scope{
		store: s,
		id:    id,
		guard: g,
		tx:    tx,
		state: ScopeAcquired,
	}, nil
}

// ScopeHeld reports whether an exclusive scope is currently held for id.
func (s *Store) ScopeHeld(id workitem.ID) bool {
	return s.guards.isHeld(scopeKey(id))
}

// ID returns the record the scope protects.
func (sc *Scope) ID() workitem.ID {
	return sc.id
}

// State returns the current lifecycle state.
func (sc *Scope) State() ScopeState {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.state
}

// ReadWorkItem reads the protected record. Inside the scope this is always
// the latest committed value.
func (sc *Scope) ReadWorkItem(ctx context.Context) (workitem.WorkItem, error) {
	if err := sc.active("read"); err != nil {
		return workitem.WorkItem{}, err
	}
	return readWorkItem(ctx, sc.tx, sc.id)
}

// WriteAssignee unconditionally sets assigned_to on the protected record.
// The write becomes visible to others only on Commit.
func (sc *Scope) WriteAssignee(ctx context.Context, assignedTo string) error {
	const op = "scope write"
	if err := sc.active(op); err != nil {
		return err
	}

	result, err := sc.tx.ExecContext(ctx, `
		UPDATE work_items SET assigned_to = ? WHERE id = ?
	`, assignedTo, sc.id)
	if err != nil {
		return classify(op, workitem.Pessimistic, sc.id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(op+": rows affected", workitem.Pessimistic, sc.id, err)
	}
	if rowsAffected == 0 {
		return workitem.NewNotFoundError(op, workitem.Pessimistic, sc.id)
	}
	return nil
}

// Commit makes the scope's writes durable and releases the scope. If the
// commit fails the scope ends rolled back.
func (sc *Scope) Commit() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != ScopeAcquired {
		return fmt.Errorf("scope commit: scope is %s", sc.state)
	}
	defer sc.guard.release()

	if err := sc.tx.Commit(); err != nil {
		_ = sc.tx.Rollback()
		sc.state = ScopeRolledBack
		sc.store.scopeRollbacks.Add(1)
		return classify("scope commit", workitem.Pessimistic, sc.id, err)
	}

	sc.state = ScopeCommitted
	sc.store.scopeCommits.Add(1)
	return nil
}

// Rollback discards the scope's writes and releases the scope. It is a no-op
// once the scope has ended.
func (sc *Scope) Rollback() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.state != ScopeAcquired {
		return nil
	}
	defer sc.guard.release()

	sc.state = ScopeRolledBack
	sc.store.scopeRollbacks.Add(1)

	if err := sc.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return classify("scope rollback", workitem.Pessimistic, sc.id, err)
	}
	return nil
}

func (sc *Scope) active(op string) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.state != ScopeAcquired {
		return fmt.Errorf("%s: scope is %s", op, sc.state)
	}
	return nil
}
