package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// The global skip flag is one-directional: once goroutine-local
// bookkeeping is observed to fail, every tracking hook in the process
// becomes a permanent no-op. It never clears, not even across
// re-enables, because the failure mode it guards against (unreliable
// goroutine identity, typically during shutdown) does not recover.
var (
	skipBookkeeping atomic.Bool
	skipWarn        sync.Once

	skipLoggerMu sync.Mutex
	skipLogger   = zerolog.Nop()
)

// SetLogger installs the logger used for the one-time skip diagnostic.
func SetLogger(logger zerolog.Logger) {
	skipLoggerMu.Lock()
	defer skipLoggerMu.Unlock()
	skipLogger = logger
}

// MarkSkipped trips the global skip flag and emits a one-time warning.
func MarkSkipped(reason string) {
	skipBookkeeping.Store(true)
	skipWarn.Do(func() {
		skipLoggerMu.Lock()
		logger := skipLogger
		skipLoggerMu.Unlock()
		logger.Warn().
			Str("reason", reason).
			Msg("goroutine-local bookkeeping unavailable, allocation tracking disabled for the rest of the process")
	})
}

// Skipped reports whether all bookkeeping is permanently disabled.
func Skipped() bool {
	return skipBookkeeping.Load()
}

// ResetSkipped clears the flag. For tests only; production code never
// clears it.
func ResetSkipped() {
	skipBookkeeping.Store(false)
}
