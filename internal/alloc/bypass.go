package alloc

import (
	"sync"

	"github.com/taskfold/taskfold/internal/callstack"
)

// Goroutines currently executing profiler bookkeeping are marked here
// so the tracker never observes its own allocations. There is no
// goroutine-local storage in Go; a shared map keyed by goroutine id
// serves instead.
var (
	bypassMu sync.Mutex
	bypassed = make(map[uint64]int)
)

// Bypass runs fn with tracking suppressed on the current goroutine.
// If the goroutine id cannot be determined, the global skip flag is
// tripped and fn still runs.
func Bypass(fn func()) {
	goid, ok := callstack.GoroutineID()
	if !ok {
		MarkSkipped("goroutine id unavailable")
		fn()
		return
	}

	entered := false
	if bypassMu.TryLock() {
		bypassed[goid]++
		entered = true
		bypassMu.Unlock()
	}

	fn()

	if entered {
		// The exit must restore the flag or the goroutine stays
		// bypassed forever; this lock is only ever held for a map op.
		bypassMu.Lock()
		if bypassed[goid]--; bypassed[goid] <= 0 {
			delete(bypassed, goid)
		}
		bypassMu.Unlock()
	}
}

// InBypass reports whether the goroutine is inside bookkeeping.
// Contention reads as "yes", which errs toward skipping a tracking
// event rather than recursing into the tracker.
func InBypass(goid uint64) bool {
	if !bypassMu.TryLock() {
		return true
	}
	defer bypassMu.Unlock()
	return bypassed[goid] > 0
}
