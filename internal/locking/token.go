package locking

import (
	"context"

	"github.com/roach88/rowlock/internal/workitem"
)

// ConcurrencyToken is the manual optimistic controller: the writer advances
// an integer version and the store accepts the write only if the version it
// read is still current.
type ConcurrencyToken struct {
	store Store
	opts  options
}

// NewConcurrencyToken creates the manual optimistic controller.
func NewConcurrencyToken(st Store, opts ...Option) *ConcurrencyToken {
	return &ConcurrencyToken{store: st, opts: buildOptions(opts)}
}

// Strategy implements Controller.
func (c *ConcurrencyToken) Strategy() workitem.Strategy {
	return workitem.ConcurrencyToken
}

// Update assigns work item id to assignedTo and advances its version by one,
// provided no other writer advanced it first.
func (c *ConcurrencyToken) Update(ctx context.Context, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error) {
	log, assignee, err := c.opts.begin(workitem.ConcurrencyToken, id, assignedTo, forceConflict)
	if err != nil {
		return finish(log, err)
	}

	item, err := c.store.ReadTokenItem(ctx, id)
	if err != nil {
		return finish(log, err)
	}
	log.Debug("read", "assigned_to", item.AssignedTo, "version", item.Version)

	observed := item.Version
	item.AssignedTo = assignee
	item.Version = observed + 1

	if forceConflict {
		if err := c.opts.injectBetween(ctx, log, workitem.ConcurrencyToken, id); err != nil {
			return finish(log, err)
		}
	}

	if err := c.store.UpdateTokenItem(ctx, id, item.AssignedTo, observed, item.Version); err != nil {
		return finish(log, err)
	}
	log.Debug("version advanced", "version", item.Version)

	return finish(log, nil)
}
