package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Type == EventOutcome {
				fmt.Fprintf(&buf, "  [%d] %s id=%d -> %s\n", i+1, event.Strategy, event.ID, event.Outcome)
			}
		}
	}

	return buf.String()
}

// matchesEvent reports whether an outcome event satisfies the optional
// strategy and id filters of an assertion.
func matchesEvent(event TraceEvent, a Assertion) bool {
	if a.Strategy != "" {
		s, err := workitem.ParseStrategy(a.Strategy)
		if err != nil || string(s) != event.Strategy {
			return false
		}
	}
	return a.ID == 0 || a.ID == event.ID
}

// assertTraceContains checks that some outcome event matches the assertion.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type == EventOutcome && event.Outcome == assertion.Outcome && matchesEvent(event, assertion) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("outcome %s (strategy=%q id=%d)", assertion.Outcome, assertion.Strategy, assertion.ID),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the outcome events, filtered by strategy and
// id, are exactly the listed outcomes in order.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	var actual []string
	for _, event := range trace {
		if event.Type == EventOutcome && matchesEvent(event, assertion) {
			actual = append(actual, event.Outcome)
		}
	}

	if strings.Join(actual, ",") != strings.Join(assertion.Outcomes, ",") {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("outcomes in order: %v", assertion.Outcomes),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks if the outcome appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventOutcome && event.Outcome == assertion.Outcome && matchesEvent(event, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Outcome),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState reads one record and validates expected values using
// subset semantics.
func assertFinalState(actx *AssertionContext, assertion Assertion) error {
	strategy, err := workitem.ParseStrategy(assertion.Strategy)
	if err != nil {
		return err
	}
	id := workitem.ID(assertion.ID)

	snap, err := actx.Store.ReadSnapshot(actx.Ctx, strategy, id)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s record %d", strategy, id),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}

	actual := map[string]interface{}{
		FieldAssignedTo: snap.AssignedTo,
	}
	if snap.Version != nil {
		actual[FieldVersion] = *snap.Version
	}
	if strategy == workitem.RowVersion {
		seeded, ok := actx.SeededStamps[id]
		actual[FieldRowVersionChanged] = !ok || !seeded.Equal(workitem.StampOf(snap.RowVersion))
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist for %s", key, strategy),
				Actual:   fmt.Sprintf("field %q not tracked by %s records", key, strategy),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s id=%d field %q = %v", strategy, id, key, expectedValue),
				Actual:   fmt.Sprintf("%s id=%d field %q = %v", strategy, id, key, actualValue),
			}
		}
	}

	return nil
}

// stateValuesEqual compares a YAML-decoded expected value with a record
// field. YAML integers decode as int.
func stateValuesEqual(expected, actual interface{}) bool {
	switch exp := expected.(type) {
	case string:
		a, ok := actual.(string)
		return ok && exp == a
	case int:
		a, ok := actual.(int64)
		return ok && int64(exp) == a
	case int64:
		a, ok := actual.(int64)
		return ok && exp == a
	case bool:
		a, ok := actual.(bool)
		return ok && exp == a
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store        *store.Store
	Ctx          context.Context
	SeededStamps map[workitem.ID]workitem.Stamp
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
