package profiler

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/taskfold/taskfold/internal/alloc"
	"github.com/taskfold/taskfold/internal/callstack"
	"github.com/taskfold/taskfold/internal/registry"
	"github.com/taskfold/taskfold/internal/safe"
)

// SectionOptions configures one profile section.
type SectionOptions struct {
	// Label is appended to the leaf path segment as `name:label`
	// when it differs from the resolved function name.
	Label string

	// Kind restricts the section's measurements. Zero means the
	// run's active kind.
	Kind Kind

	// Async marks the section as asynchronous work; its registered
	// name gets an `async::` prefix.
	Async bool

	// Method strips the package qualifier from the registered name.
	Method bool
}

// Section is one profiled scope. A nil Section is the inert
// placeholder returned while profiling is off; all its methods are
// no-ops.
type Section struct {
	p     *Profiler
	name  string
	label string
	path  []string
	timed bool
	mem   bool

	task     registry.TaskID
	goid     uint64
	startMem uint64
	start    time.Time
	ended    atomic.Bool
}

// BeginSection opens a profile section at the caller's position in
// the call graph. With profiling off (or the section's kind disjoint
// from the run's) it returns nil, which every Section method accepts.
//
// Memory-kind sections create and activate a task: allocations made
// while the section is open attribute to it via call-path matching.
func (p *Profiler) BeginSection(opts SectionOptions) *Section {
	if p == nil || alloc.Skipped() || !p.enabled.Load() {
		return nil
	}
	active := Kind(p.kind.Load())
	kind := opts.Kind
	if kind == KindNone {
		kind = active
	}
	timed := kind.IncludesTime() && active.IncludesTime()
	mem := kind.IncludesMemory() && active.IncludesMemory()
	if !timed && !mem {
		return nil
	}

	cleaned := callstack.Capture(1)
	if len(cleaned) == 0 {
		return nil
	}
	leaf := cleaned[0]

	name := leaf
	if opts.Method {
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
	}
	if opts.Async {
		name = "async::" + name
	}

	path := registry.ExtractPath(p.funcs, cleaned, leaf)
	p.funcs.Register(strings.Join(path, ";"), name)

	s := &Section{
		p:     p,
		name:  name,
		path:  path,
		timed: timed,
		mem:   mem,
	}
	if opts.Label != "" && opts.Label != name {
		s.label = opts.Label
	}

	if mem {
		id := p.tasks.NextID()
		p.paths.Register(id, path)
		p.tasks.Activate(id)
		if goid, ok := goroutineID(); ok {
			s.goid = goid
			p.tasks.Push(goid, id)
		}
		s.task = id
		s.startMem, _ = p.ledger.TaskMemoryUsage(id)
	}

	s.start = time.Now()
	return s
}

// Task returns the section's task id, 0 for inert or time-only
// sections.
func (s *Section) Task() uint64 {
	if s == nil {
		return 0
	}
	return uint64(s.task)
}

// End finalizes the section: the elapsed-microseconds line goes to
// the time profile, the net memory delta (saturating at zero) goes to
// the memory profile, and the section's task is retired. Zero
// measurements are dropped. End is idempotent and nil-safe.
func (s *Section) End() {
	if s == nil || !s.ended.CompareAndSwap(false, true) {
		return
	}
	// The skip flag can trip while a section is open; once it has,
	// finalization is a no-op like every other bookkeeping path.
	if alloc.Skipped() {
		return
	}
	p := s.p

	if s.timed {
		elapsed := time.Since(s.start)
		micros := elapsed.Microseconds()
		p.stats.Record(s.name, elapsed)
		if micros > 0 {
			stack := registry.BuildStack(p.funcs, s.path, s.label)
			p.timeW.WriteEvent(stack, strconv.FormatInt(micros, 10))
		}
	}

	if s.mem {
		p.ledger.ProcessPending()
		usage, _ := p.ledger.TaskMemoryUsage(s.task)
		if delta := safe.SubSaturating(usage, s.startMem); delta > 0 {
			stack := registry.BuildStack(p.funcs, s.path, s.label)
			p.memW.WriteEvent(stack, "+"+strconv.FormatUint(delta, 10))
		}
		p.releaseTask(s.goid, s.task)
	}
}
