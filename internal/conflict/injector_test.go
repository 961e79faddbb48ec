package conflict

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.Seed(context.Background(), store.DefaultSeed())
	require.NoError(t, err)
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForceConcurrentWrite_Pessimistic(t *testing.T) {
	s := newTestStore(t)
	inj := New(s.DB(), WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, inj.ForceConcurrentWrite(ctx, workitem.Pessimistic, 1))

	item, err := s.ReadWorkItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultAssignee, item.AssignedTo)
	assert.Equal(t, int64(1), inj.Count())
}

func TestForceConcurrentWrite_RowVersionChangesStamp(t *testing.T) {
	s := newTestStore(t)
	inj := New(s.DB(), WithLogger(quietLogger()))
	ctx := context.Background()

	before, err := s.ReadRowVersionItem(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, inj.ForceConcurrentWrite(ctx, workitem.RowVersion, 1))

	after, err := s.ReadRowVersionItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultAssignee, after.AssignedTo)
	assert.False(t, after.RowVersion.Equal(before.RowVersion), "stamp must change on a raw write")
}

func TestForceConcurrentWrite_TokenBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	inj := New(s.DB(), WithAssignee("Zed"), WithLogger(quietLogger()))
	ctx := context.Background()

	require.NoError(t, inj.ForceConcurrentWrite(ctx, workitem.ConcurrencyToken, 2))

	item, err := s.ReadTokenItem(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Zed", item.AssignedTo)
	assert.Equal(t, int64(1), item.Version)
}

func TestForceConcurrentWrite_MissingRow(t *testing.T) {
	s := newTestStore(t)
	inj := New(s.DB(), WithLogger(quietLogger()))

	require.NoError(t, inj.ForceConcurrentWrite(context.Background(), workitem.ConcurrencyToken, 99))
	assert.Equal(t, int64(0), inj.Count())
}

func TestForceConcurrentWrite_UnknownStrategy(t *testing.T) {
	s := newTestStore(t)
	inj := New(s.DB())

	err := inj.ForceConcurrentWrite(context.Background(), workitem.Strategy("mvcc"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}
