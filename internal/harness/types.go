package harness

// Trace event types.
const (
	EventInvoke  = "invoke"
	EventOutcome = "outcome"
)

// TraceEvent is one entry of a scenario trace. An invoke event records the
// call; the following outcome event records its result and the record state
// right after it.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	Strategy      string `json:"strategy"`
	ID            int64  `json:"id"`
	Assign        string `json:"assign,omitempty"`
	ForceConflict bool   `json:"force_conflict,omitempty"`

	Outcome           string `json:"outcome,omitempty"`
	Code              string `json:"code,omitempty"`
	AssignedTo        string `json:"assigned_to,omitempty"`
	Version           *int64 `json:"version,omitempty"`
	RowVersionChanged *bool  `json:"row_version_changed,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains all invoke and outcome events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddInvokeTrace records an update call.
func (r *Result) AddInvokeTrace(step Step, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:          EventInvoke,
		Seq:           seq,
		Strategy:      step.Strategy,
		ID:            step.ID,
		Assign:        step.Assign,
		ForceConflict: step.ForceConflict,
	})
}

// AddOutcomeTrace records the result of an update call.
func (r *Result) AddOutcomeTrace(event TraceEvent) {
	event.Type = EventOutcome
	r.Trace = append(r.Trace, event)
}

// Outcomes returns the outcome events in order.
func (r *Result) Outcomes() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventOutcome {
			out = append(out, e)
		}
	}
	return out
}
