// Package config loads md2deck YAML configuration files.
//
// A file holds defaults for the convert command. Command-line flags and
// MD2DECK_* environment variables override it; the cmd package applies that
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
)

// AppDir is the directory under the user config dir searched for named configs.
const AppDir = "go-md2deck"

// Field length limits.
const (
	MaxPathLength       = 4096
	MaxThemeLength      = 64
	MaxDateFormatLength = 64
	MaxMarkerLength     = 100
	MaxCredentialLength = 4096
)

var themePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Known values, duplicated from the root package so config stays a leaf.
var (
	validAspectRatios = []any{"16:9", "4:3", "16:10"}
	validTargets      = []any{"binary", "cloud", "notes", "all"}
	validLogFormats   = []any{"", "console", "json"}
)

// Config holds the defaults of a convert run.
type Config struct {
	Theme       string           `yaml:"theme"`
	AspectRatio string           `yaml:"aspectRatio"`
	DateFormat  string           `yaml:"dateFormat"`
	Limits      LimitsConfig     `yaml:"limits"`
	Output      OutputConfig     `yaml:"output"`
	Assets      AssetsConfig     `yaml:"assets"`
	Cloud       CloudConfig      `yaml:"cloud"`
	Ledger      LedgerConfig     `yaml:"ledger"`
	Run         RunConfig        `yaml:"run"`
	Conclusion  ConclusionConfig `yaml:"conclusion"`
}

// LimitsConfig bounds slide density. Zero means the library default.
type LimitsConfig struct {
	MaxWordsPerSlide int `yaml:"maxWordsPerSlide"`
	MaxCodeLines     int `yaml:"maxCodeLines"`
	MinSlides        int `yaml:"minSlides"`
}

// OutputConfig selects where and what to render.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`     // empty = "slides" next to the source
	Targets []string `yaml:"targets"` // binary, cloud, notes or all
}

// AssetsConfig points at custom themes and templates.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// CloudConfig configures the Google Slides target.
type CloudConfig struct {
	Credentials       string  `yaml:"credentials"` // env:NAME or a credential file
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
	MaxAttempts       int     `yaml:"maxAttempts"`
}

// LedgerConfig selects the generation ledger backend.
type LedgerConfig struct {
	DB string `yaml:"db"` // SQLite path; empty = YAML record next to the artifacts
}

// RunConfig tunes the CLI runtime.
type RunConfig struct {
	Workers   int           `yaml:"workers"`
	Timeout   time.Duration `yaml:"timeout"`
	LogFormat string        `yaml:"logFormat"`
}

// ConclusionConfig lists extra headings treated as a conclusion.
type ConclusionConfig struct {
	Markers []string `yaml:"markers"`
}

// Validate checks value ranges and lengths. Zero values are accepted.
func (c *Config) Validate() error {
	theme := validation.Validate(c.Theme,
		validation.Length(0, MaxThemeLength),
		validation.Match(themePattern).Error("must be lowercase letters, digits, '-' or '_'"),
	)
	aspect := validation.Validate(c.AspectRatio,
		validation.In(validAspectRatios...).Error("must be 16:9, 4:3 or 16:10"),
	)
	markers := validation.Validate(c.Conclusion.Markers,
		validation.Each(validation.Required, validation.Length(1, MaxMarkerLength)),
	)

	err := validation.Errors{
		"theme":              theme,
		"aspectRatio":        aspect,
		"dateFormat":         validation.Validate(c.DateFormat, validation.Length(0, MaxDateFormatLength)),
		"limits":             c.Limits.validate(),
		"output":             c.Output.validate(),
		"assets.basePath":    validation.Validate(c.Assets.BasePath, validation.Length(0, MaxPathLength)),
		"cloud":              c.Cloud.validate(),
		"ledger.db":          validation.Validate(c.Ledger.DB, validation.Length(0, MaxPathLength)),
		"run":                c.Run.validate(),
		"conclusion.markers": markers,
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	return nil
}

func (l LimitsConfig) validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.MaxWordsPerSlide, validation.Min(0)),
		validation.Field(&l.MaxCodeLines, validation.Min(0)),
		validation.Field(&l.MinSlides, validation.Min(0)),
	)
}

func (o OutputConfig) validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dir, validation.Length(0, MaxPathLength)),
		validation.Field(&o.Targets, validation.Each(
			validation.By(func(v any) error {
				s, _ := v.(string)
				return validation.Validate(strings.ToLower(strings.TrimSpace(s)),
					validation.In(validTargets...).Error("must be binary, cloud, notes or all"))
			}),
		)),
	)
}

func (c CloudConfig) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Credentials, validation.Length(0, MaxCredentialLength)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
		validation.Field(&c.MaxAttempts, validation.Min(0), validation.Max(20)),
	)
}

func (r RunConfig) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Workers, validation.Min(0), validation.Max(64)),
		validation.Field(&r.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&r.LogFormat, validation.In(validLogFormats...).Error("must be console or json")),
	)
}

// DefaultConfig returns an empty config: every field falls back to the
// library defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads a config by name or path.
// A value containing a path separator is read as is. A bare name is looked
// up as name.yaml or name.yml in the current directory, then in
// $XDG_CONFIG_HOME/go-md2deck (os.UserConfigDir).
// Unknown fields are rejected.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, user config dir.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppDir, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
