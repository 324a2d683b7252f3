// Package safe provides overflow-safe numeric conversions for
// measurement accounting.
package safe

import (
	"math"
)

// Uint64ToInt64 safely converts an uint64 value to int64, clamping to math.MaxInt64 if overflow
// would occur.
// Returns the converted value and a boolean indicating whether clamping occurred.
func Uint64ToInt64(val uint64) (int64, bool) {
	if val > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(val), false
}

// SubSaturating returns a-b, saturating at zero when b exceeds a.
// Memory deltas use this so a task that freed more than it allocated
// reads as zero rather than wrapping around.
func SubSaturating(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
