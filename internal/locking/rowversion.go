package locking

import (
	"context"

	"github.com/roach88/rowlock/internal/workitem"
)

// RowVersion is the automatic optimistic controller: the store maintains an
// opaque stamp and rejects writes based on a stale one.
type RowVersion struct {
	store Store
	opts  options
}

// NewRowVersion creates the automatic optimistic controller.
func NewRowVersion(st Store, opts ...Option) *RowVersion {
	return &RowVersion{store: st, opts: buildOptions(opts)}
}

// Strategy implements Controller.
func (r *RowVersion) Strategy() workitem.Strategy {
	return workitem.RowVersion
}

// Update assigns work item id to assignedTo if nobody wrote the item since
// it was read.
func (r *RowVersion) Update(ctx context.Context, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error) {
	log, assignee, err := r.opts.begin(workitem.RowVersion, id, assignedTo, forceConflict)
	if err != nil {
		return finish(log, err)
	}

	item, err := r.store.ReadRowVersionItem(ctx, id)
	if err != nil {
		return finish(log, err)
	}
	log.Debug("read", "assigned_to", item.AssignedTo, "row_version", item.RowVersion.String())

	item.AssignedTo = assignee

	if forceConflict {
		if err := r.opts.injectBetween(ctx, log, workitem.RowVersion, id); err != nil {
			return finish(log, err)
		}
	}

	next, err := r.store.UpdateRowVersionItem(ctx, id, item.AssignedTo, item.RowVersion)
	if err != nil {
		return finish(log, err)
	}
	log.Debug("stamp advanced", "row_version", next.String())

	return finish(log, nil)
}
