package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the test, restoring it on
// cleanup. (*testing.T).Chdir requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "time", cfg.Profile.Kind)
	assert.Equal(t, ".", cfg.Profile.OutputDir)
	assert.Equal(t, 0, cfg.Profile.MinTrackedSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskfold.yaml")
	data := `
profile:
  kind: memory
  output_dir: /tmp/profiles
  min_tracked_size: 128
logging:
  level: debug
  pretty: false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Profile.Kind)
	assert.Equal(t, "/tmp/profiles", cfg.Profile.OutputDir)
	assert.Equal(t, 128, cfg.Profile.MinTrackedSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Pretty)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskfold.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile:\n  kind: both\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "both", cfg.Profile.Kind)
	assert.Equal(t, ".", cfg.Profile.OutputDir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoadMissingDefaultFileIsOptional(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "time", cfg.Profile.Kind)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskfold.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile:\n  kind: time\n"), 0o644))

	t.Setenv("TASKFOLD_PROFILE", "both")
	t.Setenv("TASKFOLD_MIN_TRACKED_SIZE", "256")
	t.Setenv("TASKFOLD_LOG_PRETTY", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "both", cfg.Profile.Kind)
	assert.Equal(t, 256, cfg.Profile.MinTrackedSize)
	assert.False(t, cfg.Logging.Pretty)
}

func TestLoadConfigEnvVar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profile:\n  kind: memory\n"), 0o644))

	t.Setenv("TASKFOLD_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Profile.Kind)
}

func TestMergeFromEnvBadInteger(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TASKFOLD_MIN_TRACKED_SIZE", "lots")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "environment")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad kind",
			mutate:  func(c *Config) { c.Profile.Kind = "everything" },
			wantErr: "invalid profile kind",
		},
		{
			name:    "negative min size",
			mutate:  func(c *Config) { c.Profile.MinTrackedSize = -1 },
			wantErr: "min_tracked_size",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
