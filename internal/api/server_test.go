package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowlock/internal/conflict"
	"github.com/roach88/rowlock/internal/locking"
	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/testutil"
	"github.com/roach88/rowlock/internal/workitem"
)

func newTestServer(t *testing.T, withInjector bool) (*Server, *store.Store) {
	t.Helper()
	st := testutil.NewStore(t, store.Config{Preflight: true})
	opts := []locking.Option{locking.WithLogger(testutil.QuietLogger())}
	if withInjector {
		opts = append(opts, locking.WithInjector(conflict.New(st.DB(), conflict.WithLogger(testutil.QuietLogger()))))
	}
	return NewServer(nil, locking.NewSet(st, opts...), st, testutil.QuietLogger()), st
}

func post(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAssign_OutcomeStatus(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		req     AssignRequest
		status  int
		message string
	}{
		{"pessimistic ok", "/workItem/assign-pessimistic", AssignRequest{ID: 1, AssignedTo: "Bob"}, 200, "Work item updated successfully with pessimistic locking."},
		{"pessimistic forced still ok", "/workItem/assign-pessimistic", AssignRequest{ID: 2, AssignedTo: "Bob", ForceConflict: true}, 200, "Work item updated successfully with pessimistic locking."},
		{"row-version ok", "/workItem/assign-optimistic-row-version", AssignRequest{ID: 1, AssignedTo: "Bob"}, 200, "Work item updated successfully with optimistic locking."},
		{"row-version conflict", "/workItem/assign-optimistic-row-version", AssignRequest{ID: 2, AssignedTo: "Bob", ForceConflict: true}, 409, conflictMessage},
		{"token ok", "/workItem/assign-manual-optimistic-concurrency-token", AssignRequest{ID: 1, AssignedTo: "Bob"}, 200, "Work item updated successfully with optimistic locking."},
		{"token conflict", "/workItem/assign-manual-optimistic-concurrency-token", AssignRequest{ID: 2, AssignedTo: "Bob", ForceConflict: true}, 409, conflictMessage},
		{"not found", "/workItem/assign-pessimistic", AssignRequest{ID: 42, AssignedTo: "Bob"}, 404, "Work Item with Id 42 was not found!"},
		{"invalid assignee", "/workItem/assign-manual-optimistic-concurrency-token", AssignRequest{ID: 3, AssignedTo: ""}, 500, ""},
	}

	srv, _ := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, srv.Handler(), tt.path, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.message != "" {
				assert.Equal(t, tt.message, body["message"])
			}
		})
	}
}

func TestAssign_ForceConflictDisabled(t *testing.T) {
	srv, st := newTestServer(t, false)

	rec := post(t, srv.Handler(), "/workItem/assign-optimistic-row-version",
		AssignRequest{ID: 1, AssignedTo: "Bob", ForceConflict: true})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "injector_disabled", body.Error)
	require.NotNil(t, body.Outcome)
	assert.Equal(t, workitem.Failure, *body.Outcome)

	item, err := st.ReadRowVersionItem(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", item.AssignedTo)
}

func TestAssign_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/workItem/assign-pessimistic", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, srv.Handler(), "/workItem/assign-pessimistic", map[string]interface{}{"id": 1, "assignee": "Bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown field must be rejected")

	rec = post(t, srv.Handler(), "/workItem/assign-pessimistic", AssignRequest{ID: 0, AssignedTo: "Bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/workItem/assign-pessimistic", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestGetWorkItem(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := post(t, srv.Handler(), "/workItem/assign-manual-optimistic-concurrency-token", AssignRequest{ID: 3, AssignedTo: "Bob"})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/workItem/token/3", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, workitem.ConcurrencyToken, snap.Strategy)
	assert.Equal(t, "Bob", snap.AssignedTo)
	require.NotNil(t, snap.Version)
	assert.Equal(t, int64(1), *snap.Version)

	for path, want := range map[string]int{
		"/workItem/row-version/1": http.StatusOK,
		"/workItem/pessimistic/9": http.StatusNotFound,
		"/workItem/mvcc/1":        http.StatusBadRequest,
		"/workItem/pessimistic/x": http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartStop(t *testing.T) {
	st := testutil.NewStore(t, store.Config{})
	cfg := DefaultServerConfig()
	cfg.Address = "127.0.0.1:0"
	srv := NewServer(cfg, locking.NewSet(st, locking.WithLogger(testutil.QuietLogger())), st, testutil.QuietLogger())

	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(testutil.QuietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
