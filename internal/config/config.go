// Package config loads the optional YAML sidecar that controls minirel's
// ambient knobs (default database path, cache occupancy warning threshold).
// The row schema itself is never configurable here — spec.md fixes it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the non-schema settings a minirel.yaml sidecar may override.
type Config struct {
	// DatabasePath is used when the REPL is launched with no filename
	// argument.
	DatabasePath string `yaml:"database_path"`

	// CacheWarningThreshold is the fraction (0–1) of pager.TableMaxPages
	// at or above which `.dump` flags the cache as nearly full. It is advisory
	// only; the pager itself refuses new pages past TableMaxPages
	// regardless of this setting.
	CacheWarningThreshold float64 `yaml:"cache_warning_threshold"`
}

// Default returns the configuration used when no sidecar file is present.
func Default() Config {
	return Config{
		DatabasePath:          "minirel.db",
		CacheWarningThreshold: 0.8,
	}
}

// Load reads and parses a YAML config file at path. A missing file is not an
// error: Load returns Default() unchanged. A present-but-malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}
