package profiler

import (
	"fmt"
	"sync/atomic"

	"github.com/taskfold/taskfold/internal/alloc"
	"github.com/taskfold/taskfold/internal/registry"
)

// TaskContext hands a host a task identity it can attribute work to
// and query for live memory usage.
type TaskContext struct {
	p  *Profiler
	id registry.TaskID
}

// NewTaskContext allocates a fresh task id. The task is not activated
// until a path is registered for it or a section adopts it. With the
// global skip flag set, the returned context is empty.
func (p *Profiler) NewTaskContext() TaskContext {
	if alloc.Skipped() {
		return TaskContext{}
	}
	return TaskContext{p: p, id: p.tasks.NextID()}
}

// ID returns the task id.
func (t TaskContext) ID() uint64 {
	return uint64(t.id)
}

// MemoryUsage returns the task's current net allocated bytes. The
// second return is false when the ledger could not be consulted
// (lock contention) or the context is empty.
func (t TaskContext) MemoryUsage() (uint64, bool) {
	if t.p == nil || t.id == 0 || alloc.Skipped() {
		return 0, false
	}
	return t.p.ledger.TaskMemoryUsage(t.id)
}

// MemoryGuard ties a task's lifetime to a scope: closing the guard
// deactivates the task and schedules its path for deferred removal.
type MemoryGuard struct {
	p      *Profiler
	id     registry.TaskID
	closed atomic.Bool
}

// NewMemoryGuard returns a guard for the given task id. It fails when
// profiling is off or the id is the reserved unattributed id 0.
func (p *Profiler) NewMemoryGuard(id uint64) (*MemoryGuard, error) {
	if alloc.Skipped() || !p.enabled.Load() {
		return nil, ErrDisabled
	}
	if id == 0 {
		return nil, fmt.Errorf("task id 0 is reserved for unattributed events")
	}
	return &MemoryGuard{p: p, id: registry.TaskID(id)}, nil
}

// Close retires the guarded task. It is idempotent and nil-safe and
// never blocks task completion: path removal happens after a grace
// delay on a timer goroutine.
func (g *MemoryGuard) Close() error {
	if g == nil || !g.closed.CompareAndSwap(false, true) {
		return nil
	}
	goid, _ := goroutineID()
	g.p.releaseTask(goid, g.id)
	return nil
}
