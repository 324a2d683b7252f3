package registry

import (
	"sort"
	"sync"
	"time"
)

// Paths maps each task id to the call path (root to leaf) it was
// created under. Entries outlive their task by a grace delay so that
// in-flight allocations recorded just after completion still
// attribute correctly.
type Paths struct {
	mu    sync.Mutex
	paths map[TaskID][]string
}

// TaskPath is one dumped registry entry.
type TaskPath struct {
	ID   TaskID
	Path []string
}

// NewPaths returns an empty path registry.
func NewPaths() *Paths {
	return &Paths{paths: make(map[TaskID][]string)}
}

// Register stores or overwrites the path for id.
func (p *Paths) Register(id TaskID, path []string) {
	if id == 0 || !p.mu.TryLock() {
		return
	}
	defer p.mu.Unlock()
	p.paths[id] = append([]string(nil), path...)
}

// Lookup returns a copy of the path registered for id.
func (p *Paths) Lookup(id TaskID) ([]string, bool) {
	if !p.mu.TryLock() {
		return nil, false
	}
	defer p.mu.Unlock()
	path, ok := p.paths[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), path...), true
}

// Remove drops the path for id immediately.
func (p *Paths) Remove(id TaskID) {
	if !p.mu.TryLock() {
		return
	}
	defer p.mu.Unlock()
	delete(p.paths, id)
}

// ScheduleRemoval drops the path for id after the grace delay. The
// timer is fire-and-forget; task completion never waits on it.
func (p *Paths) ScheduleRemoval(id TaskID, grace time.Duration) {
	time.AfterFunc(grace, func() {
		p.Remove(id)
	})
}

// Len returns the number of registered paths. Len and Dump serve the
// explicit flush/debug path, never an allocation hook, so they may
// block on the lock where the recording paths must not.
func (p *Paths) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.paths)
}

// Dump returns every registered entry sorted by task id, for
// debugging attribution.
func (p *Paths) Dump() []TaskPath {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TaskPath, 0, len(p.paths))
	for id, path := range p.paths {
		out = append(out, TaskPath{ID: id, Path: append([]string(nil), path...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
