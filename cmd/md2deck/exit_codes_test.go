package main

// Notes:
// - exitCodeFor: every sentinel the CLI maps, plus wrapped and joined errors
//   to verify the errors.Is chain.
// - hintFor: one case per hint family; hint texts live in internal/hints.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"

	md2deck "github.com/alnah/go-md2deck"
	"github.com/alnah/go-md2deck/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	authErr := &md2deck.RendererAuthError{Target: md2deck.TargetCloud, Err: errors.New("401")}
	allFailed := fmt.Errorf("%w: %w", md2deck.ErrAllTargetsFailed, errors.Join(authErr))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Authentication (exit 6)
		{"renderer auth", authErr, ExitAuth},
		{"all targets failed on auth", allFailed, ExitAuth},

		// Malformed (exit 5)
		{"malformed document", &md2deck.MalformedDocumentError{Line: 3, Reason: "unterminated fence"}, ExitMalformed},

		// Browser (exit 4)
		{"browser connect", md2deck.ErrBrowserConnect, ExitBrowser},
		{"page create", md2deck.ErrPageCreate, ExitBrowser},
		{"page load", md2deck.ErrPageLoad, ExitBrowser},
		{"pdf generation", fmt.Errorf("binary: %w", md2deck.ErrPDFGeneration), ExitBrowser},

		// I/O (exit 3)
		{"io error", &md2deck.IOError{Op: "read", Path: "a.md", Err: os.ErrPermission}, ExitIO},
		{"file not exist", fmt.Errorf("stat: %w", os.ErrNotExist), ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"no markdown files", ErrNoMarkdownFiles, ExitIO},

		// Usage (exit 2)
		{"configuration", &md2deck.ConfigurationError{Field: "AspectRatio", Reason: "bad"}, ExitUsage},
		{"unknown target", md2deck.ErrUnknownTarget, ExitUsage},
		{"invalid asset path", md2deck.ErrInvalidAssetPath, ExitUsage},
		{"config not found", fmt.Errorf("loading config: %w", config.ErrConfigNotFound), ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config invalid", config.ErrConfigInvalid, ExitUsage},
		{"worker count", ErrInvalidWorkerCount, ExitUsage},
		{"extension", ErrInvalidExtension, ExitUsage},
		{"duration", ErrInvalidDuration, ExitUsage},
		{"usage", ErrUsage, ExitUsage},
		{"help", flag.ErrHelp, ExitUsage},

		// General (exit 1)
		{"all targets failed otherwise", fmt.Errorf("%w: %w", md2deck.ErrAllTargetsFailed, errors.New("quota")), ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes_Conventions(t *testing.T) {
	t.Parallel()

	codes := []int{ExitSuccess, ExitGeneral, ExitUsage, ExitIO, ExitBrowser, ExitMalformed, ExitAuth}
	seen := make(map[int]bool)
	for _, c := range codes {
		if c < 0 || c >= 126 {
			t.Errorf("exit code %d outside 0..125", c)
		}
		if seen[c] {
			t.Errorf("exit code %d used twice", c)
		}
		seen[c] = true
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Actionable advice
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	customAssets := t.TempDir()
	writeFile(t, filepath.Join(customAssets, "styles", "corporate.css"), "/* corporate */")

	tests := []struct {
		name string
		err  error
		hc   hintContext
		want string
	}{
		{"auth with env ref", &md2deck.RendererAuthError{Target: md2deck.TargetCloud, Err: errors.New("401")}, hintContext{credentials: "env:SLIDES"}, "SLIDES"},
		{"auth without ref", &md2deck.RendererAuthError{Target: md2deck.TargetCloud, Err: errors.New("401")}, hintContext{}, "--credentials"},
		{"malformed", &md2deck.MalformedDocumentError{Reason: "no title"}, hintContext{}, "title"},
		{"browser", md2deck.ErrBrowserConnect, hintContext{}, "--output notes"},
		{"timeout", fmt.Errorf("render: %w", context.DeadlineExceeded), hintContext{}, "--timeout"},
		{"config not found", config.ErrConfigNotFound, hintContext{configName: "talks"}, "--config"},
		{"theme field", &md2deck.ConfigurationError{Field: "Theme", Reason: "theme not found"}, hintContext{}, "light"},
		{"theme with custom assets", md2deck.ErrThemeNotFound, hintContext{assetPath: customAssets}, "corporate, dark, light"},
		{"theme with unusable assets", md2deck.ErrThemeNotFound, hintContext{assetPath: filepath.Join(customAssets, "absent")}, "dark, light, technical"},
		{"mkdir", &md2deck.IOError{Op: "mkdir", Path: "out", Err: os.ErrPermission}, hintContext{}, "--out-dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hintFor(tt.err, tt.hc)
			if !strings.HasPrefix(got, "\n  hint: ") || !strings.Contains(got, tt.want) {
				t.Errorf("hintFor(%v) = %q, want hint containing %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestHintFor_None(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		errors.New("boom"),
		&md2deck.ConfigurationError{Field: "AspectRatio", Reason: "bad"},
		&md2deck.IOError{Op: "read", Path: "a.md", Err: os.ErrNotExist},
	} {
		if got := hintFor(err, hintContext{}); got != "" {
			t.Errorf("hintFor(%v) = %q, want none", err, got)
		}
	}
}

func TestConfigSearchPaths(t *testing.T) {
	t.Parallel()

	if got := configSearchPaths("dir/talks.yaml"); got != nil {
		t.Errorf("path-like name = %v, want nil", got)
	}
	got := configSearchPaths("talks")
	if len(got) < 2 || got[0] != "talks.yaml" || got[1] != "talks.yml" {
		t.Errorf("configSearchPaths(talks) = %v", got)
	}
}
