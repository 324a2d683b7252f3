package profiler

import (
	"sync"
	"time"
)

// FunctionStats accumulates timing for one profiled function.
type FunctionStats struct {
	Calls uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Average returns the mean duration per call.
func (fs FunctionStats) Average() time.Duration {
	if fs.Calls == 0 {
		return 0
	}
	return fs.Total / time.Duration(fs.Calls) //nolint:gosec // G115: Calls is bounded by Total accumulation.
}

// Stats aggregates per-function call timing for host summary output.
// It is a convenience accumulator on the section path, so unlike the
// bookkeeping registries it may block briefly.
type Stats struct {
	mu    sync.Mutex
	funcs map[string]*FunctionStats
}

// NewStats returns an empty accumulator.
func NewStats() *Stats {
	return &Stats{funcs: make(map[string]*FunctionStats)}
}

// Record adds one call observation for name.
func (s *Stats) Record(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, ok := s.funcs[name]
	if !ok {
		fs = &FunctionStats{Min: d, Max: d}
		s.funcs[name] = fs
	}
	fs.Calls++
	fs.Total += d
	if d < fs.Min {
		fs.Min = d
	}
	if d > fs.Max {
		fs.Max = d
	}
}

// Snapshot returns a copy of the accumulated stats keyed by function
// name.
func (s *Stats) Snapshot() map[string]FunctionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]FunctionStats, len(s.funcs))
	for name, fs := range s.funcs {
		out[name] = *fs
	}
	return out
}
