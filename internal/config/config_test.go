package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Engine.Kind != EnginePHPCS {
		t.Errorf("Engine.Kind = %q, want %q", cfg.Engine.Kind, EnginePHPCS)
	}
	if cfg.Engine.Parallelism != 8 {
		t.Errorf("Engine.Parallelism = %d, want 8", cfg.Engine.Parallelism)
	}
	if cfg.MinimumPHPVersion != "5.6" {
		t.Errorf("MinimumPHPVersion = %q, want 5.6", cfg.MinimumPHPVersion)
	}
	if len(cfg.Standards) == 0 {
		t.Error("default Standards should not be empty")
	}
	if len(cfg.IgnoredPatterns) != 7 {
		t.Errorf("IgnoredPatterns = %d entries, want 7", len(cfg.IgnoredPatterns))
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(*Config) {}, "", false},
		{"builtin engine", func(c *Config) { c.Engine.Kind = EngineBuiltin; c.Engine.Binary = "" }, "", false},
		{"bad version", func(c *Config) { c.Version = 0 }, "version", true},
		{"bad engine", func(c *Config) { c.Engine.Kind = "eslint" }, "engine.kind", true},
		{"no binary", func(c *Config) { c.Engine.Binary = "" }, "engine.binary", true},
		{"no workers", func(c *Config) { c.Engine.Parallelism = 0 }, "engine.parallelism", true},
		{"no extensions", func(c *Config) { c.Extensions = nil }, "extensions", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate() should return error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() returned unexpected error: %v", err)
			}
			if err != nil {
				ce, ok := err.(*ConfigError)
				if !ok {
					t.Fatalf("Validate() error type = %T, want *ConfigError", err)
				}
				if ce.Field != tt.field {
					t.Errorf("Field = %q, want %q", ce.Field, tt.field)
				}
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "version", Message: "unsupported version 99"}
	want := "config error in field 'version': unsupported version 99"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engine.Binary != "phpcs" {
		t.Errorf("Engine.Binary = %q, want phpcs", cfg.Engine.Binary)
	}
	if cfg.MinimumPHPVersion != "5.6" {
		t.Errorf("MinimumPHPVersion = %q, want 5.6", cfg.MinimumPHPVersion)
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".themesniff")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{
  "version": 1,
  "engine": {"kind": "builtin", "parallelism": 2},
  "minimumPHPVersion": "7.4",
  "standards": ["wordpress-core"]
}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engine.Kind != EngineBuiltin {
		t.Errorf("Engine.Kind = %q, want builtin", cfg.Engine.Kind)
	}
	if cfg.Engine.Parallelism != 2 {
		t.Errorf("Engine.Parallelism = %d, want 2", cfg.Engine.Parallelism)
	}
	if cfg.MinimumPHPVersion != "7.4" {
		t.Errorf("MinimumPHPVersion = %q, want 7.4", cfg.MinimumPHPVersion)
	}
	if len(cfg.Standards) != 1 || cfg.Standards[0] != "wordpress-core" {
		t.Errorf("Standards = %v, want [wordpress-core]", cfg.Standards)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.Binary != "phpcs" {
		t.Errorf("Engine.Binary = %q, want phpcs", cfg.Engine.Binary)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("THEMESNIFF_ENGINE_BINARY", "/opt/phpcs/bin/phpcs")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Engine.Binary != "/opt/phpcs/bin/phpcs" {
		t.Errorf("Engine.Binary = %q, want env override", cfg.Engine.Binary)
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Engine.Kind = EngineBuiltin

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Engine.Kind != EngineBuiltin {
		t.Errorf("Engine.Kind = %q after save, want builtin", loaded.Engine.Kind)
	}
}
