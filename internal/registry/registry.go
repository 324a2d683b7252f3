// Package registry tracks profiled functions, task call paths and the
// set of live tasks.
//
// Every mutation uses non-blocking lock acquisition: under contention
// the operation is silently skipped, because losing a bookkeeping
// event is always preferable to stalling the host's real work.
package registry

// TaskID identifies one profiled task. IDs are allocated monotonically
// starting at 1; 0 means an event could not be attributed.
type TaskID uint64
