// Package output writes folded-stack profile files: one line per
// measurement, `frame1;frame2;...;frameN <value>`, preceded by a
// commented header block.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FilePaths holds the two output filenames for one profiling run.
type FilePaths struct {
	Time   string
	Memory string
}

// DerivePaths computes the output filenames for a run:
// {program}-{yyyymmdd-HHMMSS}.folded and
// {program}-{yyyymmdd-HHMMSS}-memory.folded under dir. Callers derive
// them once per run so both files share one timestamp.
func DerivePaths(dir, program string, now time.Time) FilePaths {
	stamp := now.Format("20060102-150405")
	base := filepath.Join(dir, fmt.Sprintf("%s-%s", program, stamp))
	return FilePaths{
		Time:   base + ".folded",
		Memory: base + "-memory.folded",
	}
}

// ProgramName returns the stem of the running executable, the default
// program identity used in filenames.
func ProgramName() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	name := filepath.Base(exe)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
