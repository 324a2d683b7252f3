package alloc

import (
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/taskfold/taskfold/internal/callstack"
	"github.com/taskfold/taskfold/internal/ledger"
	"github.com/taskfold/taskfold/internal/registry"
)

// TrackerConfig wires a Tracker to the profiling services it reports
// into.
type TrackerConfig struct {
	// Inner is the allocator actually performing allocations.
	// A nil Inner means the Go heap.
	Inner Allocator

	// Enabled reports whether memory profiling is currently active.
	Enabled func() bool

	// MinTrackedSize overrides the smallest tracked allocation.
	// Zero means MinTrackedSize.
	MinTrackedSize int

	Functions *registry.Functions
	Paths     *registry.Paths
	Tasks     *registry.Tasks
	Ledger    *ledger.Ledger

	Logger zerolog.Logger
}

// Tracker is the allocator interposition shim: it delegates to the
// inner allocator first and, on success, attributes the event to the
// task believed responsible.
type Tracker struct {
	inner   Allocator
	enabled func() bool
	minSize int
	funcs   *registry.Functions
	paths   *registry.Paths
	tasks   *registry.Tasks
	ledger  *ledger.Ledger
	logger  zerolog.Logger
}

// NewTracker builds a tracking allocator.
func NewTracker(cfg TrackerConfig) *Tracker {
	inner := cfg.Inner
	if inner == nil {
		inner = HeapAllocator{}
	}
	minSize := cfg.MinTrackedSize
	if minSize <= 0 {
		minSize = MinTrackedSize
	}
	enabled := cfg.Enabled
	if enabled == nil {
		enabled = func() bool { return false }
	}
	return &Tracker{
		inner:   inner,
		enabled: enabled,
		minSize: minSize,
		funcs:   cfg.Functions,
		paths:   cfg.Paths,
		tasks:   cfg.Tasks,
		ledger:  cfg.Ledger,
		logger:  cfg.Logger,
	}
}

// Allocate delegates to the inner allocator and, on success, tracks
// the allocation. Failed allocations are never tracked.
func (t *Tracker) Allocate(size int) ([]byte, error) {
	buf, err := t.inner.Allocate(size)
	if err != nil {
		return nil, err
	}
	t.trackAllocation(buf, size)
	return buf, nil
}

// Deallocate delegates to the inner allocator and severs the buffer's
// attribution. The owning task was recorded at allocation time, so
// only the address is buffered here.
func (t *Tracker) Deallocate(buf []byte) error {
	if err := t.inner.Deallocate(buf); err != nil {
		return err
	}
	t.trackDeallocation(buf)
	return nil
}

func (t *Tracker) trackAllocation(buf []byte, size int) {
	if Skipped() || !t.enabled() || size < t.minSize || len(buf) == 0 {
		return
	}
	goid, ok := callstack.GoroutineID()
	if !ok {
		MarkSkipped("goroutine id unavailable")
		return
	}
	if InBypass(goid) {
		return
	}

	addr := uintptr(unsafe.Pointer(&buf[0]))
	Bypass(func() {
		task := t.attribute()
		if task == 0 {
			// Unattributable; the event is dropped.
			return
		}
		t.ledger.RecordAllocation(goid, task, addr, uint64(size))
	})
}

// attribute resolves the task responsible for the current call site:
// capture and clean the stack, reduce it to registered frames, then
// match against the task path registry.
func (t *Tracker) attribute() registry.TaskID {
	cleaned := callstack.Capture(3)
	if len(cleaned) == 0 {
		id, _ := t.tasks.LastActive()
		return id
	}
	path := registry.ExtractPath(t.funcs, cleaned, "")
	if len(path) == 0 {
		id, _ := t.tasks.LastActive()
		return id
	}
	return t.paths.FindMatching(path, t.tasks)
}

func (t *Tracker) trackDeallocation(buf []byte) {
	if Skipped() || !t.enabled() || len(buf) < t.minSize {
		return
	}
	goid, ok := callstack.GoroutineID()
	if !ok {
		MarkSkipped("goroutine id unavailable")
		return
	}
	if InBypass(goid) {
		return
	}

	addr := uintptr(unsafe.Pointer(&buf[0]))
	Bypass(func() {
		t.ledger.RecordDeallocation(goid, addr)
	})
}
