package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-md2deck/internal/config"
	"github.com/alnah/go-md2deck/internal/gslides"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath   string        // MD2DECK_CONFIG: config file name or path
	Theme        string        // MD2DECK_THEME
	AspectRatio  string        // MD2DECK_ASPECT_RATIO
	Outputs      []string      // MD2DECK_OUTPUT: comma-separated targets
	OutDir       string        // MD2DECK_OUT_DIR
	Credentials  string        // MD2DECK_CREDENTIALS: cloud credential reference
	LedgerDB     string        // MD2DECK_LEDGER_DB
	AssetPath    string        // MD2DECK_ASSET_PATH
	DateFormat   string        // MD2DECK_DATE_FORMAT
	LogFormat    string        // MD2DECK_LOG_FORMAT
	Timeout      time.Duration // MD2DECK_TIMEOUT
	Workers      int           // MD2DECK_WORKERS
	MaxWords     int           // MD2DECK_MAX_WORDS
	MaxCodeLines int           // MD2DECK_MAX_CODE_LINES
	MinSlides    int           // MD2DECK_MIN_SLIDES
}

// knownEnvVars lists valid MD2DECK_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2DECK_CONFIG":         true,
	"MD2DECK_THEME":          true,
	"MD2DECK_ASPECT_RATIO":   true,
	"MD2DECK_OUTPUT":         true,
	"MD2DECK_OUT_DIR":        true,
	"MD2DECK_CREDENTIALS":    true,
	"MD2DECK_LEDGER_DB":      true,
	"MD2DECK_ASSET_PATH":     true,
	"MD2DECK_DATE_FORMAT":    true,
	"MD2DECK_LOG_FORMAT":     true,
	"MD2DECK_TIMEOUT":        true,
	"MD2DECK_WORKERS":        true,
	"MD2DECK_MAX_WORDS":      true,
	"MD2DECK_MAX_CODE_LINES": true,
	"MD2DECK_MIN_SLIDES":     true,
	gslides.EnvToken:         true, // read by the cloud renderer itself
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("MD2DECK_CONFIG"),
		Theme:       getenv("MD2DECK_THEME"),
		AspectRatio: getenv("MD2DECK_ASPECT_RATIO"),
		OutDir:      getenv("MD2DECK_OUT_DIR"),
		Credentials: getenv("MD2DECK_CREDENTIALS"),
		LedgerDB:    getenv("MD2DECK_LEDGER_DB"),
		AssetPath:   getenv("MD2DECK_ASSET_PATH"),
		DateFormat:  getenv("MD2DECK_DATE_FORMAT"),
		LogFormat:   getenv("MD2DECK_LOG_FORMAT"),
	}

	if outputs := getenv("MD2DECK_OUTPUT"); outputs != "" {
		for _, o := range strings.Split(outputs, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Outputs = append(cfg.Outputs, o)
			}
		}
	}

	if timeout := getenv("MD2DECK_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	cfg.Workers = positiveInt(getenv("MD2DECK_WORKERS"))
	cfg.MaxWords = positiveInt(getenv("MD2DECK_MAX_WORDS"))
	cfg.MaxCodeLines = positiveInt(getenv("MD2DECK_MAX_CODE_LINES"))
	cfg.MinSlides = positiveInt(getenv("MD2DECK_MIN_SLIDES"))

	return cfg
}

func positiveInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// warnUnknownEnvVars prints a warning for each unrecognized MD2DECK_* variable.
// Helps catch typos like MD2DECK_THEMES instead of MD2DECK_THEME.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "MD2DECK_") {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment values over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Theme, env.Theme)
	setString(&cfg.AspectRatio, env.AspectRatio)
	setString(&cfg.DateFormat, env.DateFormat)
	setString(&cfg.Output.Dir, env.OutDir)
	setString(&cfg.Cloud.Credentials, env.Credentials)
	setString(&cfg.Ledger.DB, env.LedgerDB)
	setString(&cfg.Assets.BasePath, env.AssetPath)
	setString(&cfg.Run.LogFormat, env.LogFormat)

	if len(env.Outputs) > 0 {
		cfg.Output.Targets = env.Outputs
	}
	if env.Timeout > 0 {
		cfg.Run.Timeout = env.Timeout
	}
	setInt(&cfg.Run.Workers, env.Workers)
	setInt(&cfg.Limits.MaxWordsPerSlide, env.MaxWords)
	setInt(&cfg.Limits.MaxCodeLines, env.MaxCodeLines)
	setInt(&cfg.Limits.MinSlides, env.MinSlides)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
