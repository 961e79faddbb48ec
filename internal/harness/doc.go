// Package harness runs YAML scenarios against the locking controllers and
// checks their outcomes, trace and final record state.
//
// # Scenario Format
//
//	name: token_forced_conflict
//	description: "A concurrent write between read and commit is a conflict"
//	preflight: true            # optional, default true
//	injected_assignee: Mallory # optional, default "John Stevens"
//	seed:                      # optional, default items 1-3 assigned to Alice
//	  - { id: 1, assigned_to: Alice, version: 0 }
//	flow:
//	  - strategy: concurrency-token
//	    id: 1
//	    assign: Bob
//	    force_conflict: true
//	    expect:
//	      outcome: Conflict
//	assertions:
//	  - type: final_state
//	    strategy: concurrency-token
//	    id: 1
//	    expect: { assigned_to: John Stevens, version: 1 }
//
// # Assertion Types
//
//   - trace_contains: an outcome event matches strategy, id and outcome
//   - trace_order: outcomes appear in the given order
//   - trace_count: an outcome appears exactly N times
//   - final_state: a record's assigned_to, version or row_version_changed
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database with a logical
// clock and sequential op ids. Row-version stamps are random, so the trace
// records only whether a step changed the stamp. Traces are therefore
// byte-identical across runs and can be compared with golden files.
package harness
