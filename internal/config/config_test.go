package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Theme != "" || len(cfg.Output.Targets) != 0 {
		t.Errorf("DefaultConfig() = %+v, want zero values", cfg)
	}
}

func TestLoadConfig_Full(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "deck.yaml", `
theme: dark
aspectRatio: "4:3"
dateFormat: long
limits:
  maxWordsPerSlide: 80
  maxCodeLines: 15
  minSlides: 4
output:
  dir: build/slides
  targets: [binary, cloud]
assets:
  basePath: ./assets
cloud:
  credentials: env:SLIDES_TOKEN
  requestsPerSecond: 2.5
  burst: 4
  maxAttempts: 3
ledger:
  db: decks.db
run:
  workers: 3
  timeout: 90s
  logFormat: json
conclusion:
  markers: [Wrap-up]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Theme != "dark" || cfg.AspectRatio != "4:3" || cfg.DateFormat != "long" {
		t.Errorf("top level = %q %q %q", cfg.Theme, cfg.AspectRatio, cfg.DateFormat)
	}
	if cfg.Limits != (LimitsConfig{MaxWordsPerSlide: 80, MaxCodeLines: 15, MinSlides: 4}) {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Output.Dir != "build/slides" || strings.Join(cfg.Output.Targets, ",") != "binary,cloud" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Cloud.Credentials != "env:SLIDES_TOKEN" || cfg.Cloud.RequestsPerSecond != 2.5 || cfg.Cloud.Burst != 4 || cfg.Cloud.MaxAttempts != 3 {
		t.Errorf("Cloud = %+v", cfg.Cloud)
	}
	if cfg.Ledger.DB != "decks.db" || cfg.Assets.BasePath != "./assets" {
		t.Errorf("Ledger/Assets = %+v %+v", cfg.Ledger, cfg.Assets)
	}
	if cfg.Run.Workers != 3 || cfg.Run.Timeout != 90*time.Second || cfg.Run.LogFormat != "json" {
		t.Errorf("Run = %+v", cfg.Run)
	}
	if len(cfg.Conclusion.Markers) != 1 || cfg.Conclusion.Markers[0] != "Wrap-up" {
		t.Errorf("Markers = %v", cfg.Conclusion.Markers)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
		field   string
	}{
		{"unknown field", "theme: dark\ncolour: red\n", ErrConfigParse, ""},
		{"bad yaml", "theme: [dark\n", ErrConfigParse, ""},
		{"bad aspect ratio", "aspectRatio: \"21:9\"\n", ErrConfigInvalid, "aspectRatio"},
		{"uppercase theme", "theme: Dark\n", ErrConfigInvalid, "theme"},
		{"negative words", "limits:\n  maxWordsPerSlide: -1\n", ErrConfigInvalid, "limits"},
		{"unknown target", "output:\n  targets: [pptx]\n", ErrConfigInvalid, "output"},
		{"too many workers", "run:\n  workers: 500\n", ErrConfigInvalid, "run"},
		{"bad log format", "run:\n  logFormat: xml\n", ErrConfigInvalid, "run"},
		{"negative burst", "cloud:\n  burst: -2\n", ErrConfigInvalid, "cloud"},
		{"blank marker", "conclusion:\n  markers: [\"\"]\n", ErrConfigInvalid, "conclusion.markers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := LoadConfig(path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.field != "" && !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %q", err, tt.field)
			}
		})
	}
}

func TestLoadConfig_EmptyName(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("expected ErrEmptyConfigName, got %v", err)
	}
}

func TestLoadConfig_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

// Not parallel: changes the working directory and XDG_CONFIG_HOME.
func TestLoadConfig_NameLookup(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only drives os.UserConfigDir on linux")
	}
	cwd := t.TempDir()
	xdg := t.TempDir()
	t.Chdir(cwd)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", xdg)

	if err := os.MkdirAll(filepath.Join(xdg, AppDir), 0o750); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, filepath.Join(xdg, AppDir), "talk.yml", "theme: technical\n")

	cfg, err := LoadConfig("talk")
	if err != nil {
		t.Fatalf("user config lookup: %v", err)
	}
	if cfg.Theme != "technical" {
		t.Errorf("Theme = %q, want technical", cfg.Theme)
	}

	// The current directory wins over the user config dir.
	writeConfig(t, cwd, "talk.yaml", "theme: dark\n")
	cfg, err = LoadConfig("talk")
	if err != nil {
		t.Fatalf("local lookup: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.Theme)
	}

	_, err = LoadConfig("absent")
	if !errors.Is(err, ErrConfigNotFound) || !strings.Contains(err.Error(), "absent.yml") {
		t.Errorf("expected ErrConfigNotFound listing tried paths, got %v", err)
	}
}
