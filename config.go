package winnow

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/fennwick/winnow/defaults"
)

// Config is the fixed-at-startup filtering surface. It is resolved once
// from the config file and command-line flags and never renegotiated
// per query.
type Config struct {
	// Limit caps the number of lines emitted per query. 0 means no cap.
	Limit int         `toml:"limit"`
	Field FieldConfig `toml:"field"`
	Match MatchConfig `toml:"match"`
	Cache CacheConfig `toml:"cache"`
}

// FieldConfig selects which delimited segment of a line is scored.
type FieldConfig struct {
	// Delimiter is a single character. Defaults to a tab.
	Delimiter string `toml:"delimiter"`
	// Index is the zero-based segment to score. -1 scores the whole line.
	Index int `toml:"index"`
	// Partitions caps how many segments a line splits into; the last
	// segment keeps any remaining delimiters. 0 means unlimited.
	Partitions int `toml:"partitions"`
}

// MatchConfig holds the scorer policy.
type MatchConfig struct {
	// Case is "smart", "ignore", or "respect".
	Case string `toml:"case"`
	// Exact switches from fuzzy subsequence to substring matching.
	Exact bool `toml:"exact"`
}

// CacheConfig controls the per-pattern result cache.
type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// ConfigDir returns the config directory path.
// Resolution order: $WINNOW_CONFIG_DIR > $XDG_CONFIG_HOME/winnow > ~/.config/winnow
func ConfigDir() string {
	if dir := os.Getenv("WINNOW_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "winnow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "winnow-config")
	}
	return filepath.Join(home, ".config", "winnow")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultConfig returns the default configuration from the embedded
// config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaults.ConfigTOML, &cfg); err != nil {
		panic("winnow: invalid embedded config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from path, or from ConfigPath when path is
// empty. A missing file yields the defaults; a present file is decoded
// over the defaults, so absent keys keep their default values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for malformed values. Any error
// here is fatal before the corpus is captured.
func (c *Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if utf8.RuneCountInString(c.Field.Delimiter) != 1 {
		return fmt.Errorf("field delimiter must be a single character, got %q", c.Field.Delimiter)
	}
	if c.Field.Index < -1 {
		return fmt.Errorf("field index must be -1 (whole line) or a segment position, got %d", c.Field.Index)
	}
	if c.Field.Partitions < 0 {
		return fmt.Errorf("field partitions must not be negative, got %d", c.Field.Partitions)
	}
	switch c.Match.Case {
	case "smart", "ignore", "respect":
	default:
		return fmt.Errorf("unknown case mode %q (want smart, ignore, or respect)", c.Match.Case)
	}
	if c.Cache.Enabled && c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache ttl_seconds must be positive when the cache is enabled, got %d", c.Cache.TTLSeconds)
	}
	return nil
}
