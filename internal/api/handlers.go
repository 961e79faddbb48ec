package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// Updater runs one assignment under a strategy. Implemented by locking.Set.
type Updater interface {
	Update(ctx context.Context, strategy workitem.Strategy, id workitem.ID, assignedTo string, forceConflict bool) (workitem.Outcome, error)
}

// Reader reads the current state of a record. Implemented by store.Store.
type Reader interface {
	ReadSnapshot(ctx context.Context, strategy workitem.Strategy, id workitem.ID) (store.Snapshot, error)
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	updater      Updater
	reader       Reader
	requestCount int64
}

// NewHandlers creates handlers over the given updater and reader.
func NewHandlers(u Updater, r Reader) *Handlers {
	return &Handlers{updater: u, reader: r}
}

// RequestCount returns the number of requests handled so far.
func (h *Handlers) RequestCount() int64 {
	return atomic.LoadInt64(&h.requestCount)
}

var successMessages = map[workitem.Strategy]string{
	workitem.Pessimistic:      "Work item updated successfully with pessimistic locking.",
	workitem.RowVersion:       "Work item updated successfully with optimistic locking.",
	workitem.ConcurrencyToken: "Work item updated successfully with optimistic locking.",
}

// HandleAssign returns the handler for POST /workItem/assign-* of strategy.
func (h *Handlers) HandleAssign(strategy workitem.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&h.requestCount, 1)

		var req AssignRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
		if req.ID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
			return
		}

		outcome, err := h.updater.Update(r.Context(), strategy, req.ID, req.AssignedTo, req.ForceConflict)
		if outcome != workitem.Success {
			writeOutcomeError(w, outcome, req.ID, err)
			return
		}

		writeJSON(w, statusFor(outcome), AssignResponse{
			Outcome:  outcome,
			Strategy: strategy,
			Message:  successMessages[strategy],
		})
	}
}

// HandleGetWorkItem handles GET /workItem/{strategy}/{id}
func (h *Handlers) HandleGetWorkItem(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&h.requestCount, 1)

	strategy, err := workitem.ParseStrategy(r.PathValue("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_strategy", err.Error())
		return
	}
	id, err := workitem.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	snap, err := h.reader.ReadSnapshot(r.Context(), strategy, id)
	if err != nil {
		writeOutcomeError(w, workitem.OutcomeOf(err), id, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// HandleHealth handles GET /healthz
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.reader.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
