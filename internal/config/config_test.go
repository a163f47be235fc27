package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	home, _ := os.UserHomeDir()
	if cfg.ProfilesDir != filepath.Join(home, "claude-profiles") {
		t.Errorf("ProfilesDir = %q", cfg.ProfilesDir)
	}
	if got, want := cfg.Settings(), blocks.DefaultSettings(); got != want {
		t.Errorf("Settings = %+v, want %+v", got, want)
	}
	if cfg.Serve.Listen != "127.0.0.1:9469" || cfg.Serve.Refresh != "@every 30s" {
		t.Errorf("Serve = %+v", cfg.Serve)
	}
	if cfg.Watch.Interval != time.Minute {
		t.Errorf("Watch.Interval = %s", cfg.Watch.Interval)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
profiles_dir: /data/profiles
cost_mode: auto
workers: 3
block:
  duration: 4h
  token_limit: 1000
  start_granularity: 0s
bands:
  warning: 2h
  critical: 30m
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := cfg.Settings()
	if cfg.ProfilesDir != "/data/profiles" {
		t.Errorf("ProfilesDir = %q", cfg.ProfilesDir)
	}
	if s.CostMode != blocks.CostAuto || s.Workers != 3 {
		t.Errorf("settings = %+v", s)
	}
	if s.BlockDuration != 4*time.Hour || s.TokenLimit != 1000 || s.StartGranularity != 0 {
		t.Errorf("block settings = %+v", s)
	}
	if s.WarningThreshold != 2*time.Hour || s.CriticalThreshold != 30*time.Minute {
		t.Errorf("band settings = %+v", s)
	}
	if s.MaxSchemaMajor != blocks.DefaultMaxSchemaMajor {
		t.Errorf("unset key lost its default: %d", s.MaxSchemaMajor)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "block:\n  token_limit: 1000\n")
	t.Setenv("CBC_BLOCK_TOKEN_LIMIT", "5000")
	t.Setenv("CBC_PROFILES_DIR", "/env/profiles")
	t.Setenv("CBC_BANDS_WARNING", "150m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Block.TokenLimit != 5000 {
		t.Errorf("TokenLimit = %d, want env value", cfg.Block.TokenLimit)
	}
	if cfg.ProfilesDir != "/env/profiles" {
		t.Errorf("ProfilesDir = %q", cfg.ProfilesDir)
	}
	if cfg.Bands.Warning != 150*time.Minute {
		t.Errorf("Bands.Warning = %s", cfg.Bands.Warning)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero duration", "block:\n  duration: 0s\n"},
		{"negative limit", "block:\n  token_limit: -1\n"},
		{"critical above warning", "bands:\n  warning: 1h\n  critical: 2h\n"},
		{"bad cost mode", "cost_mode: guess\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"zero watch interval", "watch:\n  interval: 0s\n"},
		{"negative workers", "workers: -2\n"},
		{"bad refresh schedule", "serve:\n  refresh: sometimes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := map[string]string{
		"~":          home,
		"~/profiles": filepath.Join(home, "profiles"),
		"/abs/path":  "/abs/path",
		"rel/~/x":    "rel/~/x",
		"~other":     "~other",
	}
	for in, want := range tests {
		got, err := ExpandHome(in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPricing(t *testing.T) {
	cfg := Defaults()
	tbl, err := cfg.Pricing()
	if err != nil {
		t.Fatalf("Pricing: %v", err)
	}
	if _, ok := tbl.Lookup("claude-sonnet-4-20250514"); !ok {
		t.Error("built-in table missing sonnet")
	}

	cfg.PricingFile = writeConfig(t, "models:\n  local-model: {input: 1, output: 1}\n")
	tbl, err = cfg.Pricing()
	if err != nil {
		t.Fatalf("Pricing with file: %v", err)
	}
	if _, ok := tbl.Lookup("local-model"); !ok {
		t.Error("pricing file not applied")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "token_limit: 300000000") {
		t.Errorf("default file missing token limit:\n%s", data)
	}
	if !strings.Contains(string(data), "# Billing block shape") {
		t.Errorf("default file missing comments:\n%s", data)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load written defaults: %v", err)
	}
	if cfg.Settings() != blocks.DefaultSettings() {
		t.Errorf("round trip changed settings: %+v", cfg.Settings())
	}

	if err := WriteDefault(path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("err = %v, want ErrConfigExists", err)
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("forced overwrite: %v", err)
	}
}
