// Package store provides the SQLite-backed record store for the three work
// item collections.
//
// Each concurrency strategy owns one table:
//   - work_items: plain records, written inside an exclusive Scope
//   - work_items_with_row_version: opaque row_version maintained by a trigger
//   - work_items_with_concurrency_token: integer version advanced by writers
//
// # Write Preconditions
//
// Unconditional writes are only reachable through a Scope, which holds a
// per-id guard and an immediate (write-locking) transaction for its whole
// lifetime. Compare-and-set writes run the UPDATE and, on a miss, the
// NotFound/Conflict disambiguation inside one transaction, so a rejected
// write never changes the payload or the version.
//
// The row_version trigger fires on every UPDATE that does not set the stamp
// itself, including raw statements issued outside this package. A stale
// stamp is therefore always detected, whoever wrote last.
//
// # Database Configuration
//
// Connection parameters are passed in the DSN so that every pooled
// connection gets them:
//   - _journal_mode=WAL: readers do not block the writer
//   - _synchronous=NORMAL
//   - _busy_timeout: writers wait for the lock instead of failing
//   - _txlock=immediate: BEGIN acquires the write lock up front
//   - _foreign_keys=on
package store
