package md2deck

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-md2deck/internal/dateutil"
	"github.com/alnah/go-md2deck/internal/ledger"
)

// DefaultOutputDirName is created next to the source when OutputDir is empty.
const DefaultOutputDirName = "slides"

var themeNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Options configures one conversion.
type Options struct {
	Theme            string
	AspectRatio      string
	MaxWordsPerSlide int
	MaxCodeLines     int
	MinSlides        int

	// OutputDir receives every artifact. Empty means "slides" next to the source.
	OutputDir string
	Targets   []Target

	ForceRegenerate bool
	DryRun          bool

	// DateFormat formats the title slide date (see internal/dateutil).
	DateFormat string

	// Credentials references the cloud deck credential: "env:NAME", a token
	// file or a service-account key file. Empty falls back to MD2DECK_CLOUD_TOKEN.
	Credentials string

	ConclusionMarkers []string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Theme:            DefaultTheme,
		AspectRatio:      DefaultAspectRatio,
		MaxWordsPerSlide: DefaultMaxWordsPerSlide,
		MaxCodeLines:     DefaultMaxCodeLines,
		MinSlides:        DefaultMinSlides,
		Targets:          slices.Clone(DefaultTargets),
		DateFormat:       dateutil.DefaultDateFormat,
	}
}

// withDefaults fills zero values. Negative limits are kept so Validate can
// reject them.
func (o Options) withDefaults(sourcePath string) Options {
	d := DefaultOptions()
	if o.Theme == "" {
		o.Theme = d.Theme
	}
	if o.AspectRatio == "" {
		o.AspectRatio = d.AspectRatio
	}
	if o.MaxWordsPerSlide == 0 {
		o.MaxWordsPerSlide = d.MaxWordsPerSlide
	}
	if o.MaxCodeLines == 0 {
		o.MaxCodeLines = d.MaxCodeLines
	}
	if o.MinSlides == 0 {
		o.MinSlides = d.MinSlides
	}
	if len(o.Targets) == 0 {
		o.Targets = d.Targets
	}
	if o.DateFormat == "" {
		o.DateFormat = d.DateFormat
	}
	if o.OutputDir == "" {
		o.OutputDir = filepath.Join(filepath.Dir(sourcePath), DefaultOutputDirName)
	}
	return o
}

// Validate rejects options before any work begins. The first failing field
// in alphabetical order is reported as a *ConfigurationError.
func (o *Options) Validate() error {
	err := validation.ValidateStruct(o,
		validation.Field(&o.Theme, validation.Required, validation.Match(themeNamePattern).Error("must be lowercase letters, digits, '-' or '_'")),
		validation.Field(&o.AspectRatio, validation.Required, validation.In(AspectWide, AspectStandard, AspectWide1610).Error("must be 16:9, 4:3 or 16:10")),
		validation.Field(&o.MaxWordsPerSlide, validation.Required, validation.Min(1)),
		validation.Field(&o.MaxCodeLines, validation.Required, validation.Min(1)),
		validation.Field(&o.MinSlides, validation.Min(0)),
		validation.Field(&o.Targets, validation.Required, validation.Each(validation.By(validateTarget)), validation.By(uniqueTargets)),
		validation.Field(&o.DateFormat, validation.By(validateDateFormat)),
	)
	return toConfigurationError(err)
}

func validateTarget(v any) error {
	if t, _ := v.(Target); !t.Valid() {
		return errors.New("must be binary, cloud or notes")
	}
	return nil
}

func uniqueTargets(v any) error {
	targets, _ := v.([]Target)
	seen := make(map[Target]bool, len(targets))
	for _, t := range targets {
		if seen[t] {
			return fmt.Errorf("duplicate target %q", t)
		}
		seen[t] = true
	}
	return nil
}

func validateDateFormat(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	_, err := dateutil.ParseDateFormat(s)
	return err
}

// toConfigurationError flattens ozzo errors into one *ConfigurationError.
func toConfigurationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return &ConfigurationError{Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for f := range verrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &ConfigurationError{Field: fields[0], Reason: verrs[fields[0]].Error()}
}

// snapshot is the configuration part of the fingerprint and ledger record.
// Flags that do not change the artifacts (force, dry-run, credentials) are
// left out.
func (o Options) snapshot() ledger.Config {
	targets := targetStrings(o.Targets)
	sort.Strings(targets)
	return ledger.Config{
		Theme:            o.Theme,
		AspectRatio:      o.AspectRatio,
		MaxWordsPerSlide: o.MaxWordsPerSlide,
		MaxCodeLines:     o.MaxCodeLines,
		MinSlides:        o.MinSlides,
		Targets:          targets,
		OutputDir:        o.OutputDir,
		DateFormat:       o.DateFormat,

		ConclusionMarkers: normalizeMarkers(o.ConclusionMarkers),
	}
}

// normalizeMarkers lowercases, trims, dedupes and sorts markers. Matching is
// case-insensitive, so "Recap" and "recap" hash the same.
func normalizeMarkers(markers []string) []string {
	var out []string
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func (o Options) planConfig() PlanConfig {
	return PlanConfig{
		MaxWordsPerSlide:  o.MaxWordsPerSlide,
		MaxCodeLines:      o.MaxCodeLines,
		MinSlides:         o.MinSlides,
		ConclusionMarkers: o.ConclusionMarkers,
	}
}
