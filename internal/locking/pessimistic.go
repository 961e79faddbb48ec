package locking

import (
	"context"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// Pessimistic serialises writers to the same work item with an exclusive
// scope held across read, mutate and commit.
type Pessimistic struct {
	store Store
	opts  options
}

// NewPessimistic creates the pessimistic controller.
func NewPessimistic(st Store, opts ...Option) *Pessimistic {
	return &Pessimistic{store: st, opts: buildOptions(opts)}
}

// Strategy implements Controller.
func (p *Pessimistic) Strategy() workitem.Strategy {
	return workitem.Pessimistic
}

// Update assigns work item id to assignedTo.
//
// With forceConflict the injected write is started after the read. It
// blocks on the scope, so it lands on top of this update's committed value;
// Update waits for it before returning.
func (p *Pessimistic) Update(ctx context.Context, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error) {
	log, assignee, err := p.opts.begin(workitem.Pessimistic, id, assignedTo, forceConflict)
	if err != nil {
		return finish(log, err)
	}

	scope, err := p.store.BeginScope(ctx, id)
	if err != nil {
		return finish(log, err)
	}
	defer scope.Rollback() // No-op if committed
	log.Debug("scope acquired")

	item, err := scope.ReadWorkItem(ctx)
	if err != nil {
		_ = scope.Rollback()
		return finish(log, err)
	}
	log.Debug("read inside scope", "assigned_to", item.AssignedTo)

	var injected chan error
	if forceConflict {
		injected = make(chan error, 1)
		go func() {
			injected <- p.opts.injector.ForceConcurrentWrite(ctx, workitem.Pessimistic, id)
		}()
	}

	if err = commitAssignee(ctx, scope, assignee); err != nil {
		_ = scope.Rollback()
	}
	awaitInjected(ctx, log, injected)

	return finish(log, err)
}

// commitAssignee writes and commits. Cancellation observed before the commit
// leaves nothing applied; once Commit returns nil the update stands.
func commitAssignee(ctx context.Context, scope *store.Scope, assignee string) error {
	if err := scope.WriteAssignee(ctx, assignee); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &workitem.Error{Code: workitem.ErrCodeStore, Op: "scope commit", Strategy: workitem.Pessimistic, ID: scope.ID(), Err: err}
	}
	return scope.Commit()
}
