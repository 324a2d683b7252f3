// Package ledger accumulates attributed allocation events. Events land
// in per-goroutine pending buffers and are periodically merged into a
// global per-task ledger, so the allocation path never takes a shared
// lock and never blocks.
package ledger

import (
	"sync"

	"github.com/taskfold/taskfold/internal/registry"
	"github.com/taskfold/taskfold/internal/safe"
)

const (
	// flushThreshold triggers a merge once a goroutine's pending
	// buffer reaches this many entries.
	flushThreshold = 50
	// bufferCapacity is the initial capacity of a pending buffer.
	bufferCapacity = 100
)

// Sink receives one call per merged event: a positive delta for an
// allocation, a negative one for the matching deallocation.
type Sink func(task registry.TaskID, delta int64)

type allocation struct {
	addr uintptr
	size uint64
}

type pendingAlloc struct {
	task registry.TaskID
	addr uintptr
	size uint64
}

type buffer struct {
	mu       sync.Mutex
	allocs   []pendingAlloc
	deallocs []uintptr
}

// Ledger is the global per-task allocation ledger.
type Ledger struct {
	mu         sync.Mutex
	taskAllocs map[registry.TaskID][]allocation
	addrOwner  map[uintptr]registry.TaskID

	bufMu   sync.Mutex
	buffers map[uint64]*buffer // goroutine id -> pending events

	sink Sink
}

// New returns an empty ledger. sink may be nil.
func New(sink Sink) *Ledger {
	return &Ledger{
		taskAllocs: make(map[registry.TaskID][]allocation),
		addrOwner:  make(map[uintptr]registry.TaskID),
		buffers:    make(map[uint64]*buffer),
		sink:       sink,
	}
}

// RecordAllocation buffers one attributed allocation for the calling
// goroutine. Task 0 events are dropped. The buffer is merged into the
// ledger once it reaches the flush threshold.
func (l *Ledger) RecordAllocation(goid uint64, task registry.TaskID, addr uintptr, size uint64) {
	if task == 0 {
		return
	}
	b := l.buffer(goid)
	if b == nil || !b.mu.TryLock() {
		return
	}
	b.allocs = append(b.allocs, pendingAlloc{task: task, addr: addr, size: size})
	full := len(b.allocs) >= flushThreshold
	b.mu.Unlock()

	if full {
		l.ProcessPending()
	}
}

// RecordDeallocation buffers one deallocation. Attribution happens at
// merge time via the ledger's address index, so only the address is
// recorded here.
func (l *Ledger) RecordDeallocation(goid uint64, addr uintptr) {
	b := l.buffer(goid)
	if b == nil || !b.mu.TryLock() {
		return
	}
	b.deallocs = append(b.deallocs, addr)
	full := len(b.deallocs) >= flushThreshold
	b.mu.Unlock()

	if full {
		l.ProcessPending()
	}
}

func (l *Ledger) buffer(goid uint64) *buffer {
	if !l.bufMu.TryLock() {
		return nil
	}
	defer l.bufMu.Unlock()
	b, ok := l.buffers[goid]
	if !ok {
		b = &buffer{
			allocs:   make([]pendingAlloc, 0, bufferCapacity),
			deallocs: make([]uintptr, 0, bufferCapacity),
		}
		l.buffers[goid] = b
	}
	return b
}

// ProcessPending swaps out every goroutine's pending buffers and
// merges them into the ledger. Lock contention anywhere means "retry
// later": events taken from a buffer while the ledger is contended are
// dropped rather than blocking the caller.
func (l *Ledger) ProcessPending() {
	var allocs []pendingAlloc
	var deallocs []uintptr

	if !l.bufMu.TryLock() {
		return
	}
	for _, b := range l.buffers {
		if !b.mu.TryLock() {
			continue
		}
		if len(b.allocs) > 0 {
			allocs = append(allocs, b.allocs...)
			b.allocs = b.allocs[:0]
		}
		if len(b.deallocs) > 0 {
			deallocs = append(deallocs, b.deallocs...)
			b.deallocs = b.deallocs[:0]
		}
		b.mu.Unlock()
	}
	l.bufMu.Unlock()

	if len(allocs) == 0 && len(deallocs) == 0 {
		return
	}
	if !l.mu.TryLock() {
		return
	}

	type merged struct {
		task  registry.TaskID
		delta int64
	}
	events := make([]merged, 0, len(allocs)+len(deallocs))

	for _, a := range allocs {
		l.taskAllocs[a.task] = append(l.taskAllocs[a.task], allocation{addr: a.addr, size: a.size})
		l.addrOwner[a.addr] = a.task
		delta, _ := safe.Uint64ToInt64(a.size)
		events = append(events, merged{task: a.task, delta: delta})
	}
	for _, addr := range deallocs {
		owner, ok := l.addrOwner[addr]
		if !ok {
			continue
		}
		delete(l.addrOwner, addr)
		records := l.taskAllocs[owner]
		for i, rec := range records {
			if rec.addr == addr {
				records[i] = records[len(records)-1]
				l.taskAllocs[owner] = records[:len(records)-1]
				delta, _ := safe.Uint64ToInt64(rec.size)
				events = append(events, merged{task: owner, delta: -delta})
				break
			}
		}
	}
	l.mu.Unlock()

	// The sink runs outside the ledger lock; it appends to the output
	// file and must not extend the critical section.
	if l.sink != nil {
		for _, e := range events {
			l.sink(e.task, e.delta)
		}
	}
}

// TaskMemoryUsage returns the bytes currently attributed to a task
// after merging pending events. The boolean is false when the ledger
// lock is contended.
func (l *Ledger) TaskMemoryUsage(task registry.TaskID) (uint64, bool) {
	l.ProcessPending()
	if !l.mu.TryLock() {
		return 0, false
	}
	defer l.mu.Unlock()
	var total uint64
	for _, rec := range l.taskAllocs[task] {
		total += rec.size
	}
	return total, true
}

// Totals merges pending events and returns the live bytes attributed
// to every task, including tasks whose records all drained to zero.
// It runs on the explicit final-flush path, not under any allocation
// hook, so unlike the recording paths it may block on the lock.
func (l *Ledger) Totals() map[registry.TaskID]uint64 {
	l.ProcessPending()
	l.mu.Lock()
	defer l.mu.Unlock()
	totals := make(map[registry.TaskID]uint64, len(l.taskAllocs))
	for task, records := range l.taskAllocs {
		var total uint64
		for _, rec := range records {
			total += rec.size
		}
		totals[task] = total
	}
	return totals
}
