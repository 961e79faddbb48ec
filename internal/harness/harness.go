package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rowlock/internal/conflict"
	"github.com/roach88/rowlock/internal/locking"
	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/testutil"
	"github.com/roach88/rowlock/internal/workitem"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and op ids.
type Harness struct {
	store       *store.Store
	controllers *locking.Set
	clock       *testutil.DeterministicClock
	logger      *slog.Logger

	// seededStamps holds the row-version stamp of every seeded id, for
	// row_version_changed checks.
	seededStamps map[workitem.ID]workitem.Stamp
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and seed it
// 2. Wire the controllers with a conflict injector
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, nil)
}

// RunContext is Run with a caller context and logger. A nil logger discards
// controller logs.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st, err := store.OpenConfig(store.Config{Path: ":memory:", Preflight: scenario.preflight()})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	seed := scenario.Seed
	if len(seed) == 0 {
		seed = store.DefaultSeed()
	}
	if _, err := st.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	injOpts := []conflict.Option{conflict.WithLogger(logger)}
	if scenario.InjectedAssignee != "" {
		injOpts = append(injOpts, conflict.WithAssignee(scenario.InjectedAssignee))
	}
	injector := conflict.New(st.DB(), injOpts...)

	h := &Harness{
		store: st,
		controllers: locking.NewSet(st,
			locking.WithInjector(injector),
			locking.WithLogger(logger),
			locking.WithOpIDGenerator(testutil.NewSequentialOpIDs(scenario.Name)),
		),
		clock:        testutil.NewDeterministicClock(),
		logger:       logger,
		seededStamps: make(map[workitem.ID]workitem.Stamp),
	}

	for _, item := range seed {
		rv, err := st.ReadRowVersionItem(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read seeded stamp for id %d: %w", item.ID, err)
		}
		h.seededStamps[item.ID] = rv.RowVersion
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Store:        st,
		Ctx:          ctx,
		SeededStamps: h.seededStamps,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Records an invoke event
// 2. Runs the update through the strategy's controller
// 3. Records an outcome event with the record state right after the update
// 4. Compares the outcome with the expect clause, if any
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		strategy, err := workitem.ParseStrategy(step.Strategy)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
		step.Strategy = string(strategy)
		id := workitem.ID(step.ID)

		before, beforeErr := h.store.ReadSnapshot(ctx, strategy, id)

		result.AddInvokeTrace(step, h.clock.Next())

		outcome, updateErr := h.controllers.Update(ctx, strategy, id, step.Assign, step.ForceConflict)

		event := TraceEvent{
			Seq:      h.clock.Next(),
			Strategy: step.Strategy,
			ID:       step.ID,
			Outcome:  outcome.String(),
		}
		if updateErr != nil {
			event.Code = string(workitem.CodeOf(updateErr))
		}

		after, err := h.store.ReadSnapshot(ctx, strategy, id)
		switch {
		case err == nil:
			event.AssignedTo = after.AssignedTo
			event.Version = after.Version
			if strategy == workitem.RowVersion && beforeErr == nil {
				changed := before.RowVersion != after.RowVersion
				event.RowVersionChanged = &changed
			}
		case !workitem.IsNotFound(err):
			return fmt.Errorf("flow step %d: read state: %w", i, err)
		}
		result.AddOutcomeTrace(event)

		if step.Expect != nil {
			if step.Expect.Outcome != event.Outcome {
				result.AddError(fmt.Sprintf("flow[%d] %s id=%d: expected outcome %s, got %s (%v)",
					i, step.Strategy, step.ID, step.Expect.Outcome, event.Outcome, updateErr))
			} else if step.Expect.Code != "" && step.Expect.Code != event.Code {
				result.AddError(fmt.Sprintf("flow[%d] %s id=%d: expected code %s, got %q",
					i, step.Strategy, step.ID, step.Expect.Code, event.Code))
			}
		}

		h.logger.Debug("flow step completed",
			"step", i,
			"strategy", step.Strategy,
			"id", step.ID,
			"outcome", event.Outcome,
		)
	}

	return nil
}
