// Package config provides configuration loading and management for
// taskfold: a YAML file layered with TASKFOLD_* environment variable
// overrides.
package config

import (
	"fmt"
)

// Config is the full taskfold configuration.
type Config struct {
	Profile ProfileConfig `yaml:"profile"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProfileConfig controls what gets profiled and where results land.
type ProfileConfig struct {
	// Kind selects the measurements recorded: off, time, memory or both.
	Kind string `yaml:"kind" env:"TASKFOLD_PROFILE"`

	// OutputDir is the directory .folded files are written to.
	// Empty means the current working directory.
	OutputDir string `yaml:"output_dir" env:"TASKFOLD_OUTPUT_DIR"`

	// MinTrackedSize is the smallest allocation, in bytes, that gets
	// attributed. Zero means the built-in default.
	MinTrackedSize int `yaml:"min_tracked_size" env:"TASKFOLD_MIN_TRACKED_SIZE"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error).
	Level string `yaml:"level" env:"TASKFOLD_LOG_LEVEL"`

	// Pretty enables human-readable console output.
	Pretty bool `yaml:"pretty" env:"TASKFOLD_LOG_PRETTY"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Profile: ProfileConfig{
			Kind:      "time",
			OutputDir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Validate checks a configuration for usable values.
func Validate(cfg *Config) error {
	switch cfg.Profile.Kind {
	case "off", "time", "memory", "both":
	default:
		return fmt.Errorf("invalid profile kind %q (want off, time, memory or both)", cfg.Profile.Kind)
	}
	if cfg.Profile.MinTrackedSize < 0 {
		return fmt.Errorf("min_tracked_size must not be negative, got %d", cfg.Profile.MinTrackedSize)
	}
	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}
	return nil
}
