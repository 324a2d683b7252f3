package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePaths(t *testing.T) {
	now := time.Date(2026, 8, 26, 14, 30, 5, 0, time.UTC)
	paths := DerivePaths("/tmp/out", "myscript", now)

	assert.Equal(t, "/tmp/out/myscript-20260826-143005.folded", paths.Time)
	assert.Equal(t, "/tmp/out/myscript-20260826-143005-memory.folded", paths.Memory)
}

func TestProgramName(t *testing.T) {
	name := ProgramName()
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, string(os.PathSeparator))
}

func TestWriter_HeaderFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.folded")
	w := NewWriter(path, zerolog.Nop())

	require.NoError(t, w.Init("Time Profile", "/usr/bin/myscript", 1234, "1.0.0"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(string(data), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "# Time Profile", lines[0])
	assert.Equal(t, "# Script: /usr/bin/myscript", lines[1])
	assert.Equal(t, "# Started: 1234", lines[2])
	assert.Equal(t, "# Version: 1.0.0", lines[3])
	assert.Equal(t, "", lines[4], "header block ends with a blank line")
}

func TestWriter_AppendsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.folded")
	w := NewWriter(path, zerolog.Nop())

	require.NoError(t, w.Init("Memory Profile", "script", 0, "dev"))
	w.WriteEvent("main.main;store.Build", "+4096")
	w.WriteEvent("main.main;store.Build", "-4096")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "main.main;store.Build +4096\n")
	assert.Contains(t, content, "main.main;store.Build -4096\n")
}

func TestWriter_InitTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.folded")
	w := NewWriter(path, zerolog.Nop())

	require.NoError(t, w.Init("Time Profile", "script", 0, "dev"))
	w.WriteEvent("main.main", "500")
	require.NoError(t, w.Close())

	// Re-initializing the same file truncates rather than appends.
	require.NoError(t, w.Init("Time Profile", "script", 99, "dev"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "main.main 500")
	assert.Contains(t, string(data), "# Started: 99")
}

func TestWriter_EmptyEventDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.folded")
	w := NewWriter(path, zerolog.Nop())

	w.WriteEvent("", "500")
	w.WriteEvent("main.main", "")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file should be created for dropped events")
}

func TestWriter_SwallowsIOErrors(t *testing.T) {
	// A directory that does not exist makes the lazy open fail; the
	// writer must absorb it.
	w := NewWriter(filepath.Join(t.TempDir(), "missing", "test.folded"), zerolog.Nop())
	w.WriteEvent("main.main", "500")
	require.NoError(t, w.Close())
}
