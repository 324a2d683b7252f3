package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config filename looked up in the working
// directory when no explicit path is given.
const DefaultFile = "taskfold.yaml"

// Load reads the configuration, layered lowest to highest precedence:
// built-in defaults, then the YAML file, then TASKFOLD_* environment
// variables.
//
// The file is resolved in this order:
//  1. The explicit path argument.
//  2. The TASKFOLD_CONFIG environment variable.
//  3. taskfold.yaml in the working directory (optional).
//
// A missing file is only an error when it was named explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("TASKFOLD_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFile
	}

	//nolint:gosec // G304: Path is user-supplied configuration.
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Optional default file; fall through to env overrides.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Apply environment variable overrides (layered configuration).
	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
