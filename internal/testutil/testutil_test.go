package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/store"
)

func TestDeterministicClock_NextIncrementsMonotonically(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const goroutines, calls = 50, 100

	var wg sync.WaitGroup
	seen := make(chan int64, goroutines*calls)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen <- clock.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		require.False(t, unique[v], "duplicate value %d", v)
		unique[v] = true
	}
	assert.Len(t, unique, goroutines*calls)
	assert.Equal(t, int64(goroutines*calls), clock.Current())
}

func TestSequentialOpIDs(t *testing.T) {
	gen := NewSequentialOpIDs("")
	assert.Equal(t, "op-0001", gen.Generate())
	assert.Equal(t, "op-0002", gen.Generate())

	named := NewSequentialOpIDs("scenario-a")
	assert.Equal(t, "scenario-a-0001", named.Generate())
}

func TestNewStore_SeedsDefaults(t *testing.T) {
	s := NewStore(t, store.Config{})

	item, err := s.ReadTokenItem(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Alice", item.AssignedTo)
	assert.Equal(t, int64(0), item.Version)
}

func TestNewStore_CustomSeed(t *testing.T) {
	s := NewStore(t, store.Config{}, store.SeedItem{ID: 8, AssignedTo: "Grace", Version: 2})

	_, err := s.ReadWorkItem(context.Background(), 1)
	assert.Error(t, err, "default seed should not be applied when items are given")

	item, err := s.ReadTokenItem(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.Version)
}
