package locking

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/conflict"
	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/testutil"
	"github.com/roach88/rowlock/internal/workitem"
)

type fixture struct {
	store    *store.Store
	injector *conflict.Injector
	set      *Set
}

func newFixture(t *testing.T, cfg store.Config, items ...store.SeedItem) *fixture {
	t.Helper()
	st := testutil.NewStore(t, cfg, items...)
	inj := conflict.New(st.DB(), conflict.WithLogger(testutil.QuietLogger()))
	return &fixture{
		store:    st,
		injector: inj,
		set: NewSet(st,
			WithInjector(inj),
			WithLogger(testutil.QuietLogger()),
			WithOpIDGenerator(testutil.NewSequentialOpIDs(t.Name())),
		),
	}
}

func (f *fixture) controller(t *testing.T, strategy workitem.Strategy) Controller {
	t.Helper()
	c, err := f.set.For(strategy)
	require.NoError(t, err)
	return c
}
