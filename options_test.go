package md2deck

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alnah/go-md2deck/internal/dateutil"
)

func TestOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	source := filepath.Join("articles", "post.md")
	got := Options{}.withDefaults(source)

	if got.Theme != DefaultTheme || got.AspectRatio != DefaultAspectRatio {
		t.Errorf("theme/aspect = %q/%q", got.Theme, got.AspectRatio)
	}
	if got.MaxWordsPerSlide != DefaultMaxWordsPerSlide || got.MaxCodeLines != DefaultMaxCodeLines || got.MinSlides != DefaultMinSlides {
		t.Errorf("limits = %d/%d/%d", got.MaxWordsPerSlide, got.MaxCodeLines, got.MinSlides)
	}
	if !reflect.DeepEqual(got.Targets, DefaultTargets) {
		t.Errorf("Targets = %v", got.Targets)
	}
	if got.DateFormat != dateutil.DefaultDateFormat {
		t.Errorf("DateFormat = %q", got.DateFormat)
	}
	if want := filepath.Join("articles", DefaultOutputDirName); got.OutputDir != want {
		t.Errorf("OutputDir = %q, want %q", got.OutputDir, want)
	}

	// Explicit values and negative limits are kept.
	custom := Options{Theme: ThemeDark, MaxWordsPerSlide: -5, OutputDir: "out"}.withDefaults(source)
	if custom.Theme != ThemeDark || custom.MaxWordsPerSlide != -5 || custom.OutputDir != "out" {
		t.Errorf("custom = %+v", custom)
	}
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(o *Options)
		wantField string
	}{
		{"defaults", func(*Options) {}, ""},
		{"custom theme name", func(o *Options) { o.Theme = "corporate_2" }, ""},
		{"theme with path", func(o *Options) { o.Theme = "../dark" }, "Theme"},
		{"uppercase theme", func(o *Options) { o.Theme = "Dark" }, "Theme"},
		{"aspect ratio", func(o *Options) { o.AspectRatio = "1:1" }, "AspectRatio"},
		{"negative code lines", func(o *Options) { o.MaxCodeLines = -1 }, "MaxCodeLines"},
		{"negative min slides", func(o *Options) { o.MinSlides = -1 }, "MinSlides"},
		{"unknown target", func(o *Options) { o.Targets = []Target{TargetNotes, "fax"} }, "Targets"},
		{"duplicate target", func(o *Options) { o.Targets = []Target{TargetBinary, TargetNotes, TargetBinary} }, "Targets"},
		{"broken date format", func(o *Options) { o.DateFormat = "[YYYY" }, "DateFormat"},
		{"first field wins", func(o *Options) { o.Theme = "BAD"; o.AspectRatio = "1:1" }, "AspectRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q (%v)", cfgErr.Field, tt.wantField, err)
			}
		})
	}
}

func TestOptions_Snapshot(t *testing.T) {
	t.Parallel()

	a := DefaultOptions()
	a.Targets = []Target{TargetNotes, TargetBinary}
	a.ForceRegenerate = true
	a.Credentials = "env:TOKEN"

	b := DefaultOptions()
	b.Targets = []Target{TargetBinary, TargetNotes}

	if !reflect.DeepEqual(a.snapshot(), b.snapshot()) {
		t.Errorf("snapshots differ:\n%+v\n%+v", a.snapshot(), b.snapshot())
	}
	if got := a.snapshot().Targets; !reflect.DeepEqual(got, []string{"binary", "notes"}) {
		t.Errorf("Targets = %v, want sorted", got)
	}
}

func TestOptions_SnapshotMarkers(t *testing.T) {
	t.Parallel()

	a := DefaultOptions()
	a.ConclusionMarkers = []string{" Recap", "lessons", "recap", ""}
	b := DefaultOptions()
	b.ConclusionMarkers = []string{"LESSONS", "recap"}

	if got := a.snapshot().ConclusionMarkers; !reflect.DeepEqual(got, []string{"lessons", "recap"}) {
		t.Errorf("ConclusionMarkers = %q, want lowercased, sorted, deduplicated", got)
	}
	if !reflect.DeepEqual(a.snapshot(), b.snapshot()) {
		t.Errorf("snapshots differ:\n%+v\n%+v", a.snapshot(), b.snapshot())
	}
	if reflect.DeepEqual(a.snapshot(), DefaultOptions().snapshot()) {
		t.Error("extra markers must change the snapshot")
	}
}
