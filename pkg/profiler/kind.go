package profiler

import "fmt"

// Kind selects which measurements a profiling run records.
type Kind int32

const (
	// KindNone records nothing.
	KindNone Kind = iota

	// KindTime records elapsed wall time per profiled section.
	KindTime

	// KindMemory records allocation attribution per task.
	KindMemory

	// KindBoth records both time and memory.
	KindBoth
)

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "off", "none", "":
		return KindNone, nil
	case "time":
		return KindTime, nil
	case "memory":
		return KindMemory, nil
	case "both":
		return KindBoth, nil
	default:
		return KindNone, fmt.Errorf("unknown profile kind %q (want off, time, memory or both)", s)
	}
}

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "time"
	case KindMemory:
		return "memory"
	case KindBoth:
		return "both"
	default:
		return "off"
	}
}

// IncludesTime reports whether the kind records elapsed time.
func (k Kind) IncludesTime() bool {
	return k == KindTime || k == KindBoth
}

// IncludesMemory reports whether the kind records memory attribution.
func (k Kind) IncludesMemory() bool {
	return k == KindMemory || k == KindBoth
}
