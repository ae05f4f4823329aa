package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the only config schema version understood.
const CurrentVersion = 1

// Config represents the complete themesniff tool configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Engine            EngineConfig   `json:"engine" mapstructure:"engine"`
	Standards         []string       `json:"standards" mapstructure:"standards"`
	MinimumPHPVersion string         `json:"minimumPHPVersion" mapstructure:"minimumPHPVersion"`
	Extensions        []string       `json:"extensions" mapstructure:"extensions"`
	IgnoredPatterns   []string       `json:"ignoredPatterns" mapstructure:"ignoredPatterns"`
	Cache             CacheConfig    `json:"cache" mapstructure:"cache"`
	Metadata          MetadataConfig `json:"metadata" mapstructure:"metadata"`
	Logging           LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// EngineConfig selects and tunes the static rule engine
type EngineConfig struct {
	Kind        string `json:"kind" mapstructure:"kind"` // "phpcs" or "builtin"
	Binary      string `json:"binary" mapstructure:"binary"`
	Parallelism int    `json:"parallelism" mapstructure:"parallelism"`
}

// CacheConfig controls the per-file engine result cache
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"` // empty = <theme>/.themesniff/cache.db
}

// MetadataConfig tunes the style.css header validator
type MetadataConfig struct {
	ReservedTerms []string `json:"reservedTerms" mapstructure:"reservedTerms"`
	TagsFile      string   `json:"tagsFile" mapstructure:"tagsFile"` // optional YAML override
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"` // optional, relative to .themesniff
}

// Engine kinds
const (
	EnginePHPCS   = "phpcs"
	EngineBuiltin = "builtin"
)

// DefaultIgnoredPatterns are matched against theme-relative paths. Matching
// files are excluded before analysis, and phpcs receives the same patterns
// anchored to the theme directory.
func DefaultIgnoredPatterns() []string {
	return []string{
		".*/node_modules/.*",
		".*/vendor/.*",
		".*/assets/build/.*",
		".*/build/.*",
		".*/bin/.*",
		".*/tests/.*",
		".*/test/.*",
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Engine: EngineConfig{
			Kind:        EnginePHPCS,
			Binary:      "phpcs",
			Parallelism: 8,
		},
		Standards:         []string{"wordpress-theme", "wordpress-core", "wordpress-extra"},
		MinimumPHPVersion: "5.6",
		Extensions:        []string{"php"},
		IgnoredPatterns:   DefaultIgnoredPatterns(),
		Cache: CacheConfig{
			Enabled: false,
		},
		Metadata: MetadataConfig{
			ReservedTerms: []string{"WordPress", "wordpress", "Theme", "theme"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("engine.kind", d.Engine.Kind)
	v.SetDefault("engine.binary", d.Engine.Binary)
	v.SetDefault("engine.parallelism", d.Engine.Parallelism)
	v.SetDefault("standards", d.Standards)
	v.SetDefault("minimumPHPVersion", d.MinimumPHPVersion)
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("ignoredPatterns", d.IgnoredPatterns)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("metadata.reservedTerms", d.Metadata.ReservedTerms)
	v.SetDefault("metadata.tagsFile", d.Metadata.TagsFile)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// LoadConfig loads configuration from <dir>/.themesniff/config.json with
// THEMESNIFF_* environment overrides (e.g. THEMESNIFF_ENGINE_KIND).
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(dir, ".themesniff"))

	v.SetEnvPrefix("THEMESNIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <dir>/.themesniff/config.json
func (c *Config) Save(dir string) error {
	cfgDir := filepath.Join(dir, ".themesniff")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	switch c.Engine.Kind {
	case EnginePHPCS, EngineBuiltin:
	default:
		return &ConfigError{Field: "engine.kind", Message: "must be \"phpcs\" or \"builtin\""}
	}
	if c.Engine.Kind == EnginePHPCS && c.Engine.Binary == "" {
		return &ConfigError{Field: "engine.binary", Message: "must not be empty"}
	}
	if c.Engine.Parallelism < 1 {
		return &ConfigError{Field: "engine.parallelism", Message: "must be at least 1"}
	}
	if len(c.Extensions) == 0 {
		return &ConfigError{Field: "extensions", Message: "must list at least one extension"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
