package store

import (
	"context"
	"sync"
)

// guardTable hands out one exclusive guard per key. Waiters block on the
// holder's release channel and honour context cancellation while waiting.
type guardTable struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newGuardTable() *guardTable {
	return &guardTable{held: make(map[string]chan struct{})}
}

// guard is the right to the exclusive scope for one key. release is safe to
// call any number of times.
type guard struct {
	table *guardTable
	key   string
	done  chan struct{}
	once  sync.Once
}

func (g *guardTable) acquire(ctx context.Context, key string) (*guard, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		g.mu.Lock()
		wait, busy := g.held[key]
		if !busy {
			done := make(chan struct{})
			g.held[key] = done
			g.mu.Unlock()
			return &guard{table: g, key: key, done: done}, nil
		}
		g.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (g *guardTable) isHeld(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}

func (gd *guard) release() {
	gd.once.Do(func() {
		gd.table.mu.Lock()
		delete(gd.table.held, gd.key)
		gd.table.mu.Unlock()
		close(gd.done)
	})
}
