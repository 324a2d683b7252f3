package registry

import "sync"

// Functions maps a registered call-path key (the ";"-joined path of a
// profiled region) to the descriptive name shown in emitted stacks.
// The map is append-only; registrations are never removed.
type Functions struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewFunctions returns an empty function registry.
func NewFunctions() *Functions {
	return &Functions{names: make(map[string]string)}
}

// Register stores or overwrites the descriptive name for key.
func (f *Functions) Register(key, desc string) {
	if key == "" {
		return
	}
	if !f.mu.TryLock() {
		return
	}
	defer f.mu.Unlock()
	f.names[key] = desc
}

// IsRegistered reports whether key names a profiled region. Contention
// reads as "not registered".
func (f *Functions) IsRegistered(key string) bool {
	if !f.mu.TryRLock() {
		return false
	}
	defer f.mu.RUnlock()
	_, ok := f.names[key]
	return ok
}

// DescriptiveName returns the registered name for key.
func (f *Functions) DescriptiveName(key string) (string, bool) {
	if !f.mu.TryRLock() {
		return "", false
	}
	defer f.mu.RUnlock()
	desc, ok := f.names[key]
	return desc, ok
}

// Len returns the number of registered regions.
func (f *Functions) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.names)
}
