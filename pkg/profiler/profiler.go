// Package profiler is the embeddable profiling surface for script
// hosts: global enable/disable control, scoped profile sections, task
// contexts and memory guards. Measurements land in folded-stack files
// (one line per event) suitable for flame graph tooling.
//
// Every bookkeeping path is non-blocking and failure-silent: lock
// contention or capture failure drops the event, never the host.
package profiler

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskfold/taskfold/internal/alloc"
	"github.com/taskfold/taskfold/internal/callstack"
	"github.com/taskfold/taskfold/internal/ledger"
	"github.com/taskfold/taskfold/internal/output"
	"github.com/taskfold/taskfold/internal/registry"
	"github.com/taskfold/taskfold/pkg/version"
)

var (
	// ErrAlreadyEnabled is returned by Enable while a run is active.
	ErrAlreadyEnabled = errors.New("profiling is already enabled")

	// ErrDisabled is returned by operations that need an active run.
	ErrDisabled = errors.New("profiling is not enabled")
)

// DefaultGraceDelay is how long a completed task's path stays
// registered so in-flight deallocations can still resolve it.
const DefaultGraceDelay = 2 * time.Second

// processStart anchors the Started header timestamp.
var processStart = time.Now()

// Config configures a Profiler. The zero value is usable.
type Config struct {
	// ScriptName identifies the profiled program in file headers and
	// output filenames. Empty means the running executable's stem.
	ScriptName string

	// OutputDir is where .folded files are written. Empty means the
	// working directory.
	OutputDir string

	// MinTrackedSize overrides the smallest attributed allocation.
	// Zero means the built-in 64 byte default.
	MinTrackedSize int

	// GraceDelay overrides how long task paths linger after task
	// completion. Zero means DefaultGraceDelay.
	GraceDelay time.Duration

	// Logger receives diagnostics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Profiler owns one profiling subsystem: the function and task path
// registries, the allocation ledger and the two output writers.
type Profiler struct {
	mu      sync.Mutex // serializes Enable, Disable and Flush
	enabled atomic.Bool
	kind    atomic.Int32

	script  string
	dir     string
	minSize int
	grace   time.Duration

	funcs  *registry.Functions
	paths  *registry.Paths
	tasks  *registry.Tasks
	ledger *ledger.Ledger
	stats  *Stats

	// Output paths are derived once per process so repeated enables
	// truncate the same files instead of scattering new ones.
	filesOnce sync.Once
	timeW     *output.Writer
	memW      *output.Writer

	base   zerolog.Logger
	logger zerolog.Logger
}

// New builds a Profiler from cfg.
func New(cfg Config) *Profiler {
	script := cfg.ScriptName
	if script == "" {
		script = output.ProgramName()
	}
	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	grace := cfg.GraceDelay
	if grace <= 0 {
		grace = DefaultGraceDelay
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	p := &Profiler{
		script:  script,
		dir:     dir,
		minSize: cfg.MinTrackedSize,
		grace:   grace,
		funcs:   registry.NewFunctions(),
		paths:   registry.NewPaths(),
		tasks:   registry.NewTasks(),
		stats:   NewStats(),
		base:    logger,
		logger:  logger,
	}
	p.ledger = ledger.New(p.writeMemoryDelta)
	alloc.SetLogger(logger)
	return p
}

// Enable starts a profiling run of the given kind: output files are
// created (or truncated) and headed, then event recording begins.
// Enabling while already enabled is an error.
func (p *Profiler) Enable(kind Kind) error {
	if kind == KindNone {
		return fmt.Errorf("profile kind %q records nothing", kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled.Load() {
		return ErrAlreadyEnabled
	}

	p.initFiles()
	started := uint64(time.Since(processStart).Microseconds()) //nolint:gosec // G115: Monotonic elapsed time is non-negative.

	if kind.IncludesTime() {
		if err := p.timeW.Init("Time Profile", p.script, started, version.Version); err != nil {
			return fmt.Errorf("failed to initialize time profile: %w", err)
		}
	}
	if kind.IncludesMemory() {
		if err := p.memW.Init("Memory Profile", p.script, started, version.Version); err != nil {
			return fmt.Errorf("failed to initialize memory profile: %w", err)
		}
	}

	p.logger = p.base.With().Str("run_id", uuid.NewString()).Logger()
	p.kind.Store(int32(kind))
	p.enabled.Store(true)

	p.logger.Info().
		Str("kind", kind.String()).
		Str("script", p.script).
		Msg("Profiling enabled")
	return nil
}

// Disable stops recording. Output files are left intact.
func (p *Profiler) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled.Load() {
		return
	}
	p.enabled.Store(false)
	p.logger.Info().Msg("Profiling disabled")
}

// IsEnabled reports whether a run is active.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// ActiveKind returns the kind of the current (or most recent) run.
func (p *Profiler) ActiveKind() Kind {
	return Kind(p.kind.Load())
}

// TimeFile returns the time profile path, empty before the first run.
func (p *Profiler) TimeFile() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timeW == nil {
		return ""
	}
	return p.timeW.Path()
}

// MemoryFile returns the memory profile path, empty before the first
// run.
func (p *Profiler) MemoryFile() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.memW == nil {
		return ""
	}
	return p.memW.Path()
}

// Stats returns the per-function timing accumulator.
func (p *Profiler) Stats() *Stats {
	return p.stats
}

// Flush merges pending allocation events and writes one aggregate
// line per registered task path to the memory profile. Paths that
// never recorded an allocation are written with a 0 measurement so
// downstream tools keep the full call hierarchy.
func (p *Profiler) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if alloc.Skipped() || p.memW == nil || !Kind(p.kind.Load()).IncludesMemory() {
		return
	}

	p.ledger.ProcessPending()
	totals := p.ledger.Totals()
	for _, tp := range p.paths.Dump() {
		stack := registry.BuildStack(p.funcs, tp.Path, "")
		total := totals[tp.ID]
		measurement := "0"
		if total > 0 {
			measurement = "+" + strconv.FormatUint(total, 10)
		}
		p.memW.WriteEvent(stack, measurement)
	}
}

// TaskPath pairs a task id with its registered call path.
type TaskPath struct {
	ID   uint64
	Path []string
}

// DumpTaskPaths returns the task path registry ordered by id, for
// debugging.
func (p *Profiler) DumpTaskPaths() []TaskPath {
	if alloc.Skipped() {
		return nil
	}
	dump := p.paths.Dump()
	out := make([]TaskPath, 0, len(dump))
	for _, tp := range dump {
		out = append(out, TaskPath{ID: uint64(tp.ID), Path: tp.Path})
	}
	return out
}

// Allocator is the allocation surface the host routes its script
// allocations through.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Deallocate(buf []byte) error
}

// WrapAllocator layers allocation tracking over inner. A nil inner
// means the Go heap. The returned allocator is safe for concurrent
// use and records only while a memory-kind run is active.
func (p *Profiler) WrapAllocator(inner Allocator) Allocator {
	var in alloc.Allocator
	if inner != nil {
		in = inner
	}
	return alloc.NewTracker(alloc.TrackerConfig{
		Inner: in,
		Enabled: func() bool {
			return p.enabled.Load() && Kind(p.kind.Load()).IncludesMemory()
		},
		MinTrackedSize: p.minSize,
		Functions:      p.funcs,
		Paths:          p.paths,
		Tasks:          p.tasks,
		Ledger:         p.ledger,
		Logger:         p.base,
	})
}

func (p *Profiler) initFiles() {
	p.filesOnce.Do(func() {
		files := output.DerivePaths(p.dir, p.script, time.Now())
		p.timeW = output.NewWriter(files.Time, p.base)
		p.memW = output.NewWriter(files.Memory, p.base)
	})
}

// writeMemoryDelta is the ledger sink: one signed folded line per
// merged allocation or deallocation event. It runs outside the ledger
// lock on whichever goroutine triggered the merge.
func (p *Profiler) writeMemoryDelta(task registry.TaskID, delta int64) {
	if delta == 0 {
		return
	}
	path, ok := p.paths.Lookup(task)
	if !ok {
		return
	}
	stack := registry.BuildStack(p.funcs, path, "")
	measurement := strconv.FormatInt(delta, 10)
	if delta > 0 {
		measurement = "+" + measurement
	}
	p.memW.WriteEvent(stack, measurement)
}

func (p *Profiler) releaseTask(goid uint64, id registry.TaskID) {
	if alloc.Skipped() {
		return
	}
	p.tasks.Deactivate(id)
	if goid != 0 {
		p.tasks.Pop(goid, id)
	}
	p.paths.ScheduleRemoval(id, p.grace)
}

var (
	defaultOnce sync.Once
	defaultProf *Profiler
)

// Default returns the process-wide Profiler, built lazily with the
// zero Config.
func Default() *Profiler {
	defaultOnce.Do(func() {
		defaultProf = New(Config{})
	})
	return defaultProf
}

// Enable starts a run on the default profiler.
func Enable(kind Kind) error { return Default().Enable(kind) }

// Disable stops the default profiler's run.
func Disable() { Default().Disable() }

// IsEnabled reports whether the default profiler is recording.
func IsEnabled() bool { return Default().IsEnabled() }

// BeginSection opens a profile section on the default profiler.
func BeginSection(opts SectionOptions) *Section { return Default().BeginSection(opts) }

// goroutineID is the thread identity probe. A failed parse trips the
// permanent global skip flag.
func goroutineID() (uint64, bool) {
	goid, ok := callstack.GoroutineID()
	if !ok {
		alloc.MarkSkipped("goroutine id unavailable")
	}
	return goid, ok
}
