package registry

import (
	"sync"
	"sync/atomic"
)

// Tasks tracks currently-active task ids and, per goroutine, the LIFO
// stack of tasks entered on it.
type Tasks struct {
	nextID atomic.Uint64

	mu     sync.Mutex
	active []TaskID            // activation order, oldest first
	stacks map[uint64][]TaskID // goroutine id -> entered tasks
}

// NewTasks returns an empty task registry.
func NewTasks() *Tasks {
	return &Tasks{stacks: make(map[uint64][]TaskID)}
}

// NextID allocates a fresh task id. The first id issued is 1.
func (t *Tasks) NextID() TaskID {
	return TaskID(t.nextID.Add(1))
}

// Activate adds id to the active set. Re-activating an already active
// id is a no-op.
func (t *Tasks) Activate(id TaskID) {
	if id == 0 || !t.mu.TryLock() {
		return
	}
	defer t.mu.Unlock()
	for _, a := range t.active {
		if a == id {
			return
		}
	}
	t.active = append(t.active, id)
}

// Deactivate removes id from the active set.
func (t *Tasks) Deactivate(id TaskID) {
	if !t.mu.TryLock() {
		return
	}
	defer t.mu.Unlock()
	for i, a := range t.active {
		if a == id {
			t.active = append(t.active[:i], t.active[i+1:]...)
			return
		}
	}
}

// Active returns the active ids in activation order, oldest first.
// Contention reads as "no active tasks".
func (t *Tasks) Active() []TaskID {
	if !t.mu.TryLock() {
		return nil
	}
	defer t.mu.Unlock()
	return append([]TaskID(nil), t.active...)
}

// LastActive returns the most recently activated id, the fallback
// attribution target when path matching finds nothing.
func (t *Tasks) LastActive() (TaskID, bool) {
	if !t.mu.TryLock() {
		return 0, false
	}
	defer t.mu.Unlock()
	if len(t.active) == 0 {
		return 0, false
	}
	return t.active[len(t.active)-1], true
}

// Push records that the goroutine entered task id.
func (t *Tasks) Push(goid uint64, id TaskID) {
	if id == 0 || !t.mu.TryLock() {
		return
	}
	defer t.mu.Unlock()
	t.stacks[goid] = append(t.stacks[goid], id)
}

// Pop removes the innermost occurrence of id from the goroutine's
// stack, not necessarily the top, and prunes the entry once empty.
func (t *Tasks) Pop(goid uint64, id TaskID) {
	if !t.mu.TryLock() {
		return
	}
	defer t.mu.Unlock()
	stack, ok := t.stacks[goid]
	if !ok {
		return
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == id {
			stack = append(stack[:i], stack[i+1:]...)
			if len(stack) == 0 {
				delete(t.stacks, goid)
			} else {
				t.stacks[goid] = stack
			}
			return
		}
	}
}

// StackDepth returns how many tasks the goroutine has entered.
func (t *Tasks) StackDepth(goid uint64) int {
	if !t.mu.TryLock() {
		return 0
	}
	defer t.mu.Unlock()
	return len(t.stacks[goid])
}
