package output

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskfold/taskfold/internal/errors"
)

// Writer appends folded lines to one profile file. The file is opened
// lazily on the first event so an enabled-but-idle run leaves only the
// header behind. Body write errors are logged once and then swallowed:
// profiling must never take the host down over an I/O failure.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	bw       *bufio.Writer
	logger   zerolog.Logger
	warnOnce sync.Once
}

// NewWriter returns a writer for the given file path.
func NewWriter(path string, logger zerolog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Init truncates the file and writes the header block: the profile
// title, the script identity, the start timestamp in microseconds
// since process start, the tool version and a blank terminator line.
func (w *Writer) Init(title, script string, startedMicros uint64, version string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeLocked()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create profile file %s: %w", w.path, err)
	}

	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# %s\n", title)
	fmt.Fprintf(bw, "# Script: %s\n", script)
	fmt.Fprintf(bw, "# Started: %d\n", startedMicros)
	fmt.Fprintf(bw, "# Version: %s\n", version)
	fmt.Fprintln(bw)

	if err := bw.Flush(); err != nil {
		errors.DeferClose(w.logger, f, "failed to close profile file")
		return fmt.Errorf("failed to write profile header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close profile file: %w", err)
	}
	return nil
}

// WriteEvent appends one folded line: the stack, a space and the
// measurement. Errors are reported once and otherwise ignored.
func (w *Writer) WriteEvent(stack, measurement string) {
	if stack == "" || measurement == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.bw == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			w.warn(err)
			return
		}
		w.file = f
		w.bw = bufio.NewWriter(f)
	}

	if _, err := fmt.Fprintf(w.bw, "%s %s\n", stack, measurement); err != nil {
		w.warn(err)
		return
	}
	// Flush per event so the file is safely re-readable after a crash.
	if err := w.bw.Flush(); err != nil {
		w.warn(err)
	}
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) closeLocked() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.bw.Flush()
	closeErr := w.file.Close()
	w.file = nil
	w.bw = nil
	if flushErr != nil {
		return fmt.Errorf("failed to flush profile file: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close profile file: %w", closeErr)
	}
	return nil
}

func (w *Writer) warn(err error) {
	w.warnOnce.Do(func() {
		w.logger.Warn().
			Err(err).
			Str("path", w.path).
			Msg("profile write failed, further events on this file are discarded")
	})
}
