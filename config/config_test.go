package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentflare-ai/go-xsdgen/config"
	"github.com/rs/zerolog"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "xsdgen.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
schema: "report.xsd"
element: "Report"
row_tag: "Row"
row_count: 3
unbounded_count: 4
force_optional: true
choice: false
seed: 42
max_depth: 8
sqlite: "columns.db"

logging:
  level: "debug"
  format: "json"
`

	cfg := writeAndLoad(t, content)

	if cfg.Schema != "report.xsd" {
		t.Errorf("Schema = %s, want report.xsd", cfg.Schema)
	}
	if cfg.Element != "Report" {
		t.Errorf("Element = %s, want Report", cfg.Element)
	}
	if cfg.RowTag != "Row" {
		t.Errorf("RowTag = %s, want Row", cfg.RowTag)
	}
	if cfg.ChoiceEnabled() {
		t.Error("ChoiceEnabled() = true, want false")
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}

	limits := cfg.Limits()
	if limits.RowCount != 3 || limits.UnboundedCount != 4 || !limits.ForceAll {
		t.Errorf("Limits() = %+v", limits)
	}

	opts := cfg.GenerateOptions(zerolog.Nop())
	if opts.Choice || opts.Seed != 42 || opts.MaxDepth != 8 {
		t.Errorf("GenerateOptions() = %+v", opts)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, `schema: "a.xsd"`)

	if cfg.RowTag != "Rpt" {
		t.Errorf("default RowTag = %s, want Rpt", cfg.RowTag)
	}
	if cfg.RowCount != 50 {
		t.Errorf("default RowCount = %d, want 50", cfg.RowCount)
	}
	if cfg.UnboundedCount != 10 {
		t.Errorf("default UnboundedCount = %d, want 10", cfg.UnboundedCount)
	}
	if !cfg.ChoiceEnabled() {
		t.Error("default ChoiceEnabled() = false, want true")
	}
	if cfg.MaxDepth != 32 {
		t.Errorf("default MaxDepth = %d, want 32", cfg.MaxDepth)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XSDGEN_ROW_COUNT", "7")
	t.Setenv("XSDGEN_CHOICE", "off")
	t.Setenv("XSDGEN_ELEMENT", "{urn:report}Report")
	t.Setenv("REPORT_SCHEMA", "expanded.xsd")

	cfg := writeAndLoad(t, `
schema: "${REPORT_SCHEMA}"
row_count: 3
`)

	if cfg.RowCount != 7 {
		t.Errorf("RowCount = %d, want 7", cfg.RowCount)
	}
	if cfg.ChoiceEnabled() {
		t.Error("ChoiceEnabled() = true, want false")
	}
	if cfg.Element != "{urn:report}Report" {
		t.Errorf("Element = %s", cfg.Element)
	}
	if cfg.Schema != "expanded.xsd" {
		t.Errorf("Schema = %s, want expanded.xsd", cfg.Schema)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"negative row count", "row_count: -1", "row_count"},
		{"negative unbounded count", "unbounded_count: -5", "unbounded_count"},
		{"bad level", "logging:\n  level: loud", "logging.level"},
		{"bad format", "logging:\n  format: xml", "logging.format"},
		{"bad yaml", "row_count: [", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "xsdgen.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := config.Load(path)
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %s", err, tt.want)
			}
		})
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("XSDGEN_SCHEMA", "env.xsd")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback() error = %v", err)
	}
	if cfg.Schema != "env.xsd" {
		t.Errorf("Schema = %s, want env.xsd", cfg.Schema)
	}
	if cfg.RowTag != "Rpt" {
		t.Errorf("RowTag = %s, want Rpt", cfg.RowTag)
	}
}

func TestNewLogger(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info message written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"message":"shown"`) {
		t.Errorf("warn message missing: %s", buf.String())
	}
}
