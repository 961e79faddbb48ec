// Package locking implements the three concurrency-control strategies for
// assigning a work item.
//
// Every controller exposes the same operation:
//
//	Update(ctx, id, assignedTo, forceConflict) (workitem.Outcome, error)
//
// and reports exactly one of Success, NotFound, Conflict or Failure. The
// returned error is nil only for Success; for the other outcomes it carries a
// *workitem.Error describing the cause.
//
// PESSIMISTIC:
// The read-modify-write runs inside a store.Scope: a per-id guard plus an
// immediate SQLite transaction. Concurrent writers to the same id wait;
// there is no Conflict outcome. Any error after the scope is acquired rolls
// it back.
//
// ROW VERSION:
// The item and its opaque stamp are read with nothing held. The write is a
// compare-and-set on the stamp; a stale stamp is a Conflict.
//
// CONCURRENCY TOKEN:
// The item and its integer version are read with nothing held. The writer
// proposes version+1 and the write is a compare-and-set on the version read.
//
// No controller retries. A Conflict is terminal for the call; retrying is a
// caller policy.
//
// forceConflict asks the configured ConflictInjector to write the same
// record between the read and the commit. Controllers built without
// WithInjector reject forceConflict with a Failure.
package locking
