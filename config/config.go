// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agentflare-ai/go-xsdgen/generate"
	"github.com/agentflare-ai/go-xsdgen/walker"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "xsdgen.yaml"

// Config is the root configuration structure.
type Config struct {
	Schema string `yaml:"schema"`
	// Element is the root element, a local name or {namespace}local.
	Element string `yaml:"element"`
	// Output is the output file. Empty means stdout.
	Output         string `yaml:"output"`
	RowTag         string `yaml:"row_tag"`
	RowCount       int    `yaml:"row_count"`
	UnboundedCount int    `yaml:"unbounded_count"`
	ForceOptional  bool   `yaml:"force_optional"`
	// Choice samples one branch per choice group. Unset means true.
	Choice      *bool         `yaml:"choice"`
	Seed        int64         `yaml:"seed"`
	MaxDepth    int           `yaml:"max_depth"`
	AllowRemote bool          `yaml:"allow_remote"`
	SQLite      string        `yaml:"sqlite"`
	Logging     LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration from XSDGEN_* environment variables
// and defaults.
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies XSDGEN_* environment variables to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("XSDGEN_SCHEMA"); v != "" {
		cfg.Schema = v
	}
	if v := os.Getenv("XSDGEN_ELEMENT"); v != "" {
		cfg.Element = v
	}
	if v := os.Getenv("XSDGEN_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("XSDGEN_ROW_TAG"); v != "" {
		cfg.RowTag = v
	}
	if v := os.Getenv("XSDGEN_ROW_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RowCount = n
		}
	}
	if v := os.Getenv("XSDGEN_UNBOUNDED_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UnboundedCount = n
		}
	}
	if v := os.Getenv("XSDGEN_FORCE_OPTIONAL"); v != "" {
		cfg.ForceOptional = parseBool(v)
	}
	if v := os.Getenv("XSDGEN_CHOICE"); v != "" {
		b := parseBool(v)
		cfg.Choice = &b
	}
	if v := os.Getenv("XSDGEN_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("XSDGEN_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxDepth = n
		}
	}
	if v := os.Getenv("XSDGEN_ALLOW_REMOTE"); v != "" {
		cfg.AllowRemote = parseBool(v)
	}
	if v := os.Getenv("XSDGEN_SQLITE"); v != "" {
		cfg.SQLite = v
	}
	if v := os.Getenv("XSDGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("XSDGEN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.RowTag == "" {
		cfg.RowTag = "Rpt"
	}
	if cfg.RowCount == 0 {
		cfg.RowCount = 50
	}
	if cfg.UnboundedCount == 0 {
		cfg.UnboundedCount = 10
	}
	if cfg.Choice == nil {
		choice := true
		cfg.Choice = &choice
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = walker.DefaultMaxDepth
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate checks the values a run depends on. Schema and element are
// checked by the commands that need them.
func (c *Config) Validate() error {
	if c.RowCount < 1 {
		return fmt.Errorf("row_count must be at least 1, got %d", c.RowCount)
	}
	if c.UnboundedCount < 1 {
		return fmt.Errorf("unbounded_count must be at least 1, got %d", c.UnboundedCount)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

// ChoiceEnabled reports whether choice groups are sampled.
func (c *Config) ChoiceEnabled() bool {
	return c.Choice == nil || *c.Choice
}

// Limits returns the occurrence limits of the configuration.
func (c *Config) Limits() walker.Limits {
	return walker.Limits{
		RowTag:         c.RowTag,
		RowCount:       c.RowCount,
		UnboundedCount: c.UnboundedCount,
		ForceAll:       c.ForceOptional,
	}
}

// GenerateOptions returns the generator options of the configuration.
func (c *Config) GenerateOptions(logger zerolog.Logger) generate.Options {
	return generate.Options{
		Limits:   c.Limits(),
		Choice:   c.ChoiceEnabled(),
		Seed:     c.Seed,
		MaxDepth: c.MaxDepth,
		Logger:   logger,
	}
}

// NewLogger builds a logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Logging.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
