package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/conflict"
	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// The injected writer advances the version between read and
// commit, so the compare-and-set on version 0 fails.
func TestConcurrencyToken_ForcedConflict(t *testing.T) {
	f := newFixture(t, store.Config{})
	ctx := context.Background()

	outcome, err := f.controller(t, workitem.ConcurrencyToken).Update(ctx, 1, "Bob", true)
	require.Error(t, err)
	assert.Equal(t, workitem.Conflict, outcome)
	assert.True(t, workitem.IsConflict(err))

	item, err := f.store.ReadTokenItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, workitem.TokenItem{ID: 1, AssignedTo: conflict.DefaultAssignee, Version: 1}, item)
}

func TestConcurrencyToken_Success(t *testing.T) {
	f := newFixture(t, store.Config{})
	ctx := context.Background()

	outcome, err := f.controller(t, workitem.ConcurrencyToken).Update(ctx, 1, "Bob", false)
	require.NoError(t, err)
	assert.Equal(t, workitem.Success, outcome)

	item, err := f.store.ReadTokenItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, workitem.TokenItem{ID: 1, AssignedTo: "Bob", Version: 1}, item)
}

func TestConcurrencyToken_VersionIncrementsByOne(t *testing.T) {
	f := newFixture(t, store.Config{})
	ctrl := f.controller(t, workitem.ConcurrencyToken)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		outcome, err := ctrl.Update(ctx, 2, fmt.Sprintf("user-%d", i), false)
		require.NoError(t, err)
		require.Equal(t, workitem.Success, outcome)

		item, err := f.store.ReadTokenItem(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(i), item.Version)
	}
}

func TestConcurrencyToken_NotFound(t *testing.T) {
	f := newFixture(t, store.Config{})

	outcome, err := f.controller(t, workitem.ConcurrencyToken).Update(context.Background(), 99, "Bob", true)
	assert.Equal(t, workitem.NotFound, outcome)
	assert.True(t, workitem.IsNotFound(err))
	assert.Equal(t, int64(0), f.injector.Count(), "injector must not run for a missing record")
}

// A forced write is caught by both detection paths of the store.
func TestRowVersion_ForcedConflict(t *testing.T) {
	for _, preflight := range []bool{true, false} {
		t.Run(fmt.Sprintf("preflight=%v", preflight), func(t *testing.T) {
			f := newFixture(t, store.Config{Preflight: preflight})
			ctx := context.Background()

			outcome, err := f.controller(t, workitem.RowVersion).Update(ctx, 1, "Dana", true)
			require.Error(t, err)
			assert.Equal(t, workitem.Conflict, outcome)

			item, err := f.store.ReadRowVersionItem(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, conflict.DefaultAssignee, item.AssignedTo, "no partial write of assignedTo")

			stats := f.store.Stats()
			assert.Equal(t, int64(0), stats.CASCommits)
			if preflight {
				assert.Equal(t, int64(1), stats.PreflightRejects)
			} else {
				assert.Equal(t, int64(1), stats.CASRejects)
			}
		})
	}
}

func TestRowVersion_SuccessAdvancesStamp(t *testing.T) {
	f := newFixture(t, store.Config{})
	ctrl := f.controller(t, workitem.RowVersion)
	ctx := context.Background()

	seen := map[string]bool{}
	first, err := f.store.ReadRowVersionItem(ctx, 3)
	require.NoError(t, err)
	seen[first.RowVersion.Raw()] = true

	for i := 0; i < 5; i++ {
		outcome, err := ctrl.Update(ctx, 3, fmt.Sprintf("user-%d", i), false)
		require.NoError(t, err)
		require.Equal(t, workitem.Success, outcome)

		item, err := f.store.ReadRowVersionItem(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("user-%d", i), item.AssignedTo)
		assert.False(t, seen[item.RowVersion.Raw()], "stamp %s reused", item.RowVersion)
		seen[item.RowVersion.Raw()] = true
	}
}

func TestRowVersion_NotFound(t *testing.T) {
	f := newFixture(t, store.Config{})

	outcome, err := f.controller(t, workitem.RowVersion).Update(context.Background(), 404, "Bob", false)
	assert.Equal(t, workitem.NotFound, outcome)
	assert.True(t, workitem.IsNotFound(err))
}

// A writer that read before another writer committed is rejected, and
// the stored payload is exactly what the other writer wrote.
func TestOptimistic_StaleReaderLoses(t *testing.T) {
	f := newFixture(t, store.Config{})
	ctx := context.Background()

	w1, err := f.store.ReadTokenItem(ctx, 1)
	require.NoError(t, err)

	outcome, err := f.controller(t, workitem.ConcurrencyToken).Update(ctx, 1, "W2", false)
	require.NoError(t, err)
	require.Equal(t, workitem.Success, outcome)

	err = f.store.UpdateTokenItem(ctx, 1, "W1", w1.Version, w1.Version+1)
	assert.True(t, workitem.IsConflict(err))

	item, err := f.store.ReadTokenItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "W2", item.AssignedTo)
	assert.Equal(t, int64(1), item.Version)
}

func TestOptimistic_ConcurrentWriters(t *testing.T) {
	for _, strategy := range []workitem.Strategy{workitem.RowVersion, workitem.ConcurrencyToken} {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t, store.Config{})
			ctrl := f.controller(t, strategy)
			ctx := context.Background()

			const writers = 16
			outcomes := make([]workitem.Outcome, writers)
			errs := make([]error, writers)
			start := make(chan struct{})
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					<-start
					outcomes[i], errs[i] = ctrl.Update(ctx, 1, fmt.Sprintf("writer-%d", i), false)
				}(i)
			}
			close(start)
			wg.Wait()

			successes := 0
			for i, o := range outcomes {
				switch o {
				case workitem.Success:
					successes++
				case workitem.Conflict:
				default:
					t.Errorf("writer %d: outcome %s, err %v", i, o, errs[i])
				}
			}
			assert.GreaterOrEqual(t, successes, 1, "at least one writer must win")
			assert.Equal(t, int64(successes), f.store.Stats().CASCommits)

			if strategy == workitem.ConcurrencyToken {
				item, err := f.store.ReadTokenItem(ctx, 1)
				require.NoError(t, err)
				assert.Equal(t, int64(successes), item.Version, "version advances exactly once per success")
			}
		})
	}
}

func TestOptimistic_CancelledAppliesNothing(t *testing.T) {
	for _, strategy := range []workitem.Strategy{workitem.RowVersion, workitem.ConcurrencyToken} {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t, store.Config{})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			outcome, err := f.controller(t, strategy).Update(ctx, 1, "Bob", false)
			assert.Equal(t, workitem.Failure, outcome)
			assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)

			snap, err := f.store.ReadSnapshot(context.Background(), strategy, 1)
			require.NoError(t, err)
			assert.Equal(t, "Alice", snap.AssignedTo)
		})
	}
}

func TestOptimistic_InvalidAssignee(t *testing.T) {
	f := newFixture(t, store.Config{})

	outcome, err := f.controller(t, workitem.ConcurrencyToken).Update(context.Background(), 1, "", false)
	assert.Equal(t, workitem.Failure, outcome)
	assert.Equal(t, workitem.ErrCodeInvalidAssignee, workitem.CodeOf(err))

	item, err := f.store.ReadTokenItem(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.Version)
}
