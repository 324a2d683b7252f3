// Package callstack captures call stacks and normalizes them into
// stable, human-readable frame names for folded-stack output.
package callstack

import (
	"runtime"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// MaxDepth caps the number of cleaned frames kept per capture.
const MaxDepth = 20

// scaffoldingPatterns lists substrings of raw symbol names that carry
// no attribution value: runtime plumbing, test-harness glue and the
// profiler's own bookkeeping entry points.
var scaffoldingPatterns = []string{
	"runtime.",
	"runtime/",
	"testing.",
	"reflect.",
	"internal/poll.",
	"sync.(*",
	"sync/atomic.",
	"alloc.(*Tracker)",
	"alloc.Bypass",
	"alloc.HeapAllocator",
	"ledger.(*Ledger)",
	"profiler.(*Profiler)",
	"profiler.(*Section)",
	"profiler.(*MemoryGuard)",
}

// IsScaffolding reports whether a raw symbol name belongs to stack
// scaffolding rather than profiled code.
func IsScaffolding(name string) bool {
	for _, p := range scaffoldingPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Capture returns the cleaned call path of the current goroutine,
// innermost frame first. skip counts additional frames to omit above
// the caller of Capture. Consecutive and repeated frames collapse onto
// their first occurrence, closures fold into their enclosing function
// and at most MaxDepth frames are kept.
func Capture(skip int) []string {
	var pcs [2 * MaxDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return nil
	}
	return cleanedPath(pcs[:n])
}

func cleanedPath(pcs []uintptr) []string {
	key := hashPCs(pcs)
	if cached, ok := pathCache.Get(key); ok {
		return append([]string(nil), cached...)
	}

	frames := runtime.CallersFrames(pcs)
	seen := make(map[string]struct{}, MaxDepth)
	cleaned := make([]string, 0, MaxDepth)
	for {
		frame, more := frames.Next()
		raw := frame.Function
		if raw != "" && !IsScaffolding(raw) {
			name := CleanFunctionName(raw)
			if name != "" {
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					cleaned = append(cleaned, name)
					if len(cleaned) == MaxDepth {
						break
					}
				}
			}
		}
		if !more {
			break
		}
	}

	pathCache.Put(key, cleaned)
	return append([]string(nil), cleaned...)
}

// CleanFunctionName normalizes a raw symbol into a stable frame name.
// Foreign (cgo) symbols are demangled, generic instantiations collapse
// onto the origin function, closures fold into their enclosing
// function and the import path is reduced to its last element.
func CleanFunctionName(name string) string {
	name = demangle.Filter(name)

	// Collapse generic instantiations: pkg.Fn[...] -> pkg.Fn.
	if i := strings.IndexByte(name, '['); i > 0 {
		if j := strings.LastIndexByte(name, ']'); j > i {
			name = name[:i] + name[j+1:]
		}
	}

	// Fold closures (".func1", ".func2.1", ...) into their parent.
	for {
		i := strings.LastIndex(name, ".func")
		if i < 0 || !digitsAndDots(name[i+len(".func"):]) {
			break
		}
		name = name[:i]
	}

	// Drop the import path, keeping package.Function.
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	return strings.TrimSuffix(name, ".")
}

func digitsAndDots(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
			return false
		}
	}
	return true
}
