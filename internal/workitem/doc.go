// Package workitem defines the records contended over by the locking
// strategies, the outcome of an update, and the error taxonomy shared by the
// store and the controllers.
//
// Three record shapes exist, one per strategy. They are kept as distinct types
// because the strategies use mutually exclusive schemas:
//
//   - WorkItem: no version field; protected by an exclusive scope
//   - RowVersionItem: opaque Stamp maintained by the store
//   - TokenItem: integer Version advanced by the writer
//
// Every write path normalises AssignedTo with NormalizeAssignee so that two
// spellings of the same name never compare unequal.
package workitem
