package locking

import (
	"context"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// Store is the record store the controllers need. *store.Store implements it.
type Store interface {
	BeginScope(ctx context.Context, id workitem.ID) (*store.Scope, error)
	ReadRowVersionItem(ctx context.Context, id workitem.ID) (workitem.RowVersionItem, error)
	UpdateRowVersionItem(ctx context.Context, id workitem.ID, assignedTo string, expected workitem.Stamp) (workitem.Stamp, error)
	ReadTokenItem(ctx context.Context, id workitem.ID) (workitem.TokenItem, error)
	UpdateTokenItem(ctx context.Context, id workitem.ID, assignedTo string, expected, next int64) error
}

var _ Store = (*store.Store)(nil)
