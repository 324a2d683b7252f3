// Package alloc provides the tracking allocator that attributes
// allocations to profiled tasks. The tracker wraps an inner allocator
// and observes every call; tracking failures never surface to the
// caller, so allocation succeeds or fails exactly as it would without
// tracking.
package alloc

import (
	"fmt"
)

// MinTrackedSize is the default smallest allocation, in bytes, worth
// attributing. Anything below it passes through untracked.
const MinTrackedSize = 64

// Allocator is the minimal allocation surface the tracker wraps.
type Allocator interface {
	Allocate(size int) ([]byte, error)
	Deallocate(buf []byte) error
}

// HeapAllocator allocates from the Go heap. Deallocation only severs
// the tracker's view; the memory itself is reclaimed by the garbage
// collector.
type HeapAllocator struct{}

// Allocate returns a zeroed buffer of the requested size.
func (HeapAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative allocation size %d", size)
	}
	return make([]byte, size), nil
}

// Deallocate releases the buffer.
func (HeapAllocator) Deallocate([]byte) error {
	return nil
}
