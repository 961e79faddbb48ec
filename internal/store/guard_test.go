package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuard_ExclusivePerKey(t *testing.T) {
	g := newGuardTable()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gd, err := g.acquire(ctx, "work_items/1")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			gd.release()
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Errorf("max concurrent holders = %d, want 1", got)
	}
	if g.isHeld("work_items/1") {
		t.Error("guard still held after all holders released")
	}
}

func TestGuard_IndependentKeys(t *testing.T) {
	g := newGuardTable()
	ctx := context.Background()

	a, err := g.acquire(ctx, "k1")
	if err != nil {
		t.Fatalf("acquire k1: %v", err)
	}
	defer a.release()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	b, err := g.acquire(ctx2, "k2")
	if err != nil {
		t.Fatalf("acquire k2 should not block on k1: %v", err)
	}
	b.release()
}

func TestGuard_CancelWhileWaiting(t *testing.T) {
	g := newGuardTable()

	held, err := g.acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer held.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = g.acquire(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("acquire err = %v, want deadline exceeded", err)
	}
}

func TestGuard_ReleaseIdempotent(t *testing.T) {
	g := newGuardTable()

	gd, err := g.acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	gd.release()
	gd.release()

	if g.isHeld("k") {
		t.Error("guard held after release")
	}

	// A released key can be taken again.
	again, err := g.acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	again.release()
}
