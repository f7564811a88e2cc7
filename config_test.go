package winnow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Limit != 0 {
		t.Errorf("default limit = %d, want 0", cfg.Limit)
	}
	if cfg.Field.Delimiter != "\t" {
		t.Errorf("default delimiter = %q, want tab", cfg.Field.Delimiter)
	}
	if cfg.Field.Index != -1 {
		t.Errorf("default field index = %d, want -1", cfg.Field.Index)
	}
	if cfg.Match.Case != "smart" {
		t.Errorf("default case mode = %q, want smart", cfg.Match.Case)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 60 {
		t.Errorf("default cache = %+v, want enabled with 60s ttl", cfg.Cache)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Field.Delimiter != "\t" || cfg.Match.Case != "smart" {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "limit = 5\n\n[match]\nexact = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Limit != 5 {
		t.Errorf("limit = %d, want 5", cfg.Limit)
	}
	if !cfg.Match.Exact {
		t.Error("exact should be true")
	}
	// Absent keys keep their defaults.
	if cfg.Field.Delimiter != "\t" {
		t.Errorf("delimiter = %q, want default tab", cfg.Field.Delimiter)
	}
	if cfg.Match.Case != "smart" {
		t.Errorf("case = %q, want default smart", cfg.Match.Case)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should keep its default enabled state")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("limit = {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"negative limit", func(c *Config) { c.Limit = -1 }, false},
		{"empty delimiter", func(c *Config) { c.Field.Delimiter = "" }, false},
		{"multi-char delimiter", func(c *Config) { c.Field.Delimiter = "ab" }, false},
		{"multibyte delimiter", func(c *Config) { c.Field.Delimiter = "→" }, true},
		{"bad field index", func(c *Config) { c.Field.Index = -2 }, false},
		{"negative partitions", func(c *Config) { c.Field.Partitions = -1 }, false},
		{"bad case mode", func(c *Config) { c.Match.Case = "loud" }, false},
		{"zero ttl with cache", func(c *Config) { c.Cache.TTLSeconds = 0 }, false},
		{"zero ttl cache disabled", func(c *Config) { c.Cache.Enabled = false; c.Cache.TTLSeconds = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
