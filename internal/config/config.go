// Package config loads Omniscient's YAML configuration. Every field has a
// working default so a missing file is not an error; a file that exists but
// does not parse is.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvDB overrides the database path when set. It wins over both the config
// file and the default.
const EnvDB = "OMNISCIENT_DB"

// Config is the full on-disk configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Capture Capture `yaml:"capture"`
	Privacy Privacy `yaml:"privacy"`
	Search  Search  `yaml:"search"`
}

// Storage locates the SQLite database.
type Storage struct {
	Path string `yaml:"path"`
}

// Capture tunes what the shell hook records.
type Capture struct {
	// MinDurationMS drops commands that finished faster than this.
	// Zero records everything.
	MinDurationMS int64 `yaml:"min_duration_ms"`
}

// Privacy controls redaction of sensitive commands.
type Privacy struct {
	RedactEnabled bool `yaml:"redact_enabled"`
	// ExtraPatterns are case-insensitive regular expressions added to the
	// built-in sensitive-command patterns.
	ExtraPatterns []string `yaml:"extra_patterns"`
}

// Search sets query defaults.
type Search struct {
	Limit int `yaml:"limit"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Storage: Storage{Path: filepath.Join(home, ".local", "share", "omniscient", "history.db")},
		Capture: Capture{MinDurationMS: 0},
		Privacy: Privacy{RedactEnabled: true},
		Search:  Search{Limit: 20},
	}
}

// Path returns the standard config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "omniscient", "config.yaml")
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist. The OMNISCIENT_DB environment variable overrides the
// database path either way.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// no file, defaults apply
	case err != nil:
		return cfg, fmt.Errorf("omniscient: config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("omniscient: config: parse %s: %w", path, err)
		}
	}

	if db := os.Getenv(EnvDB); db != "" {
		cfg.Storage.Path = db
	}
	if cfg.Search.Limit <= 0 {
		cfg.Search.Limit = Default().Search.Limit
	}
	return cfg, nil
}
