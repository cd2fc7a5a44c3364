package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	md2deck "github.com/alnah/go-md2deck"
	"github.com/alnah/go-md2deck/internal/config"
	"github.com/alnah/go-md2deck/internal/gslides"
	"github.com/alnah/go-md2deck/internal/ledger"
	"github.com/alnah/go-md2deck/internal/logger"
)

// watchDebounce groups the burst of events an editor save produces.
const watchDebounce = 300 * time.Millisecond

// runConvertCmd parses flags, converts and maps the outcome to an exit code.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	hc := hintContext{
		credentials: firstNonEmpty(flags.credentials, env.Getenv("MD2DECK_CREDENTIALS")),
		configName:  firstNonEmpty(flags.common.config, env.Getenv("MD2DECK_CONFIG")),
		assetPath:   firstNonEmpty(flags.assetPath, env.Getenv("MD2DECK_ASSET_PATH")),
	}
	return reportError(env, runConvert(ctx, positional, flags, env), hc)
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	if err := validateWorkers(flags.run.workers); err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(flags, env)
	if err != nil {
		return err
	}

	opts, err := buildOptions(cfg, flags)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if !flags.common.quiet {
		log, err = logger.New(logger.Options{
			Format:  cfg.Run.LogFormat,
			Verbose: flags.common.verbose,
			Output:  env.Stderr,
		})
		if err != nil {
			return err
		}
	}
	defer func() { _ = log.Sync() }()

	files, err := discoverFiles(inputPath)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	var store ledger.Store
	if cfg.Ledger.DB != "" && !opts.DryRun {
		db, err := ledger.OpenSQLite(cfg.Ledger.DB)
		if err != nil {
			return &md2deck.IOError{Op: "open", Path: cfg.Ledger.DB, Err: err}
		}
		defer func() { _ = db.Close() }()
		store = db
	}

	pool := env.NewPool(min(resolvePoolSize(cfg.Run.Workers), len(files)), newConverterFactory(cfg, store, log, env))
	defer func() { _ = pool.Close() }()

	params := batchParams{options: opts, timeout: cfg.Run.Timeout, baseDir: batchBaseDir(inputPath)}
	out := printOptions{quiet: flags.common.quiet, verbose: flags.common.verbose}

	if flags.run.watch && !opts.DryRun {
		return watchSources(ctx, inputPath, watchDebounce, log, func(ctx context.Context) {
			files, err := discoverFiles(inputPath)
			if err != nil {
				fmt.Fprintf(env.Stderr, "error: %v\n", err)
				return
			}
			printResults(env, convertBatch(ctx, pool, files, params), out)
		})
	}

	results := convertBatch(ctx, pool, files, params)
	printResults(env, results, out)
	return batchError(results)
}

// resolveInputPath returns the single source argument.
func resolveInputPath(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", ErrNoInput
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: convert takes one source, got %d", ErrUsage, len(positional))
	}
}

// resolveConfig layers the config file, MD2DECK_* variables and flags.
// Precedence: CLI flags > env vars > config file > defaults.
func resolveConfig(flags *convertFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	cfg := config.DefaultConfig()
	if name := firstNonEmpty(flags.common.config, envCfg.ConfigPath); name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	if err := mergeFlags(flags, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateWorkers(cfg.Run.Workers); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. Only flags given on the command
// line override, so an explicit zero still wins.
func mergeFlags(flags *convertFlags, cfg *config.Config) error {
	if flags.changed("output") {
		cfg.Output.Targets = flags.outputs
	}
	if flags.changed("theme") {
		cfg.Theme = flags.theme
	}
	if flags.changed("aspect-ratio") {
		cfg.AspectRatio = flags.aspectRatio
	}
	if flags.changed("date-format") {
		cfg.DateFormat = flags.dateFormat
	}
	if flags.changed("out-dir") {
		cfg.Output.Dir = flags.outDir
	}
	if flags.changed("credentials") {
		cfg.Cloud.Credentials = flags.credentials
	}
	if flags.changed("ledger-db") {
		cfg.Ledger.DB = flags.ledgerDB
	}
	if flags.changed("asset-path") {
		cfg.Assets.BasePath = flags.assetPath
	}
	if flags.changed("log-format") {
		cfg.Run.LogFormat = flags.common.logFormat
	}
	if flags.changed("max-words-per-slide") {
		cfg.Limits.MaxWordsPerSlide = flags.limits.maxWords
	}
	if flags.changed("max-code-lines") {
		cfg.Limits.MaxCodeLines = flags.limits.maxCodeLines
	}
	if flags.changed("min-slides") {
		cfg.Limits.MinSlides = flags.limits.minSlides
	}
	if flags.changed("workers") {
		cfg.Run.Workers = flags.run.workers
	}
	if flags.changed("timeout") {
		d, err := time.ParseDuration(flags.run.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: --timeout %q (e.g., 30s, 2m)", ErrInvalidDuration, flags.run.timeout)
		}
		cfg.Run.Timeout = d
	}
	return nil
}

// buildOptions maps the resolved config onto library options.
// Zero values are left for the library defaults.
func buildOptions(cfg *config.Config, flags *convertFlags) (md2deck.Options, error) {
	targets, err := md2deck.ParseTargets(cfg.Output.Targets)
	if err != nil {
		return md2deck.Options{}, err
	}
	return md2deck.Options{
		Theme:             cfg.Theme,
		AspectRatio:       cfg.AspectRatio,
		MaxWordsPerSlide:  cfg.Limits.MaxWordsPerSlide,
		MaxCodeLines:      cfg.Limits.MaxCodeLines,
		MinSlides:         cfg.Limits.MinSlides,
		OutputDir:         cfg.Output.Dir,
		Targets:           targets,
		ForceRegenerate:   flags.run.force,
		DryRun:            flags.run.dryRun,
		DateFormat:        cfg.DateFormat,
		Credentials:       cfg.Cloud.Credentials,
		ConclusionMarkers: cfg.Conclusion.Markers,
	}, nil
}

// cloudOptions maps the cloud section onto renderer options. Zero values
// keep the gslides defaults.
func cloudOptions(cfg *config.Config) md2deck.CloudOptions {
	rl := gslides.DefaultRateLimit
	if cfg.Cloud.RequestsPerSecond > 0 {
		rl.RequestsPerSecond = cfg.Cloud.RequestsPerSecond
	}
	if cfg.Cloud.Burst > 0 {
		rl.Burst = cfg.Cloud.Burst
	}
	retry := gslides.DefaultRetry
	if cfg.Cloud.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Cloud.MaxAttempts
	}
	return md2deck.CloudOptions{RateLimit: rl, Retry: retry}
}

// newConverterFactory returns the pool factory. Every converter shares the
// logger and the ledger store; each owns its browser.
func newConverterFactory(cfg *config.Config, store ledger.Store, log *zap.Logger, env *Environment) converterFactory {
	opts := []md2deck.Option{
		md2deck.WithLogger(log),
		md2deck.WithCloud(cloudOptions(cfg)),
		md2deck.WithClock(env.Now),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, md2deck.WithAssetPath(cfg.Assets.BasePath))
	}
	if store != nil {
		opts = append(opts, md2deck.WithStore(store))
	}
	if cfg.Run.Timeout > 0 {
		opts = append(opts, md2deck.WithTimeout(cfg.Run.Timeout))
	}
	return func() (DeckConverter, error) {
		return md2deck.NewConverter(opts...)
	}
}

// batchError summarizes failed sources. A single source returns its own
// error so the exit code stays precise.
func batchError(results []ConversionResult) error {
	failed := countResults(results).Failed
	if failed == 0 {
		return nil
	}
	err := firstError(results)
	if len(results) == 1 {
		return err
	}
	return fmt.Errorf("%d of %d source(s) failed, first: %w", failed, len(results), err)
}

// printOptions controls result output.
type printOptions struct {
	quiet   bool
	verbose bool
}

// printResults outputs the outcome of every source. Failures and warnings go
// to stderr.
func printResults(env *Environment, results []ConversionResult, po printOptions) {
	for _, r := range results {
		printResult(env, r, po)
	}

	if !po.quiet && len(results) > 1 {
		s := countResults(results)
		fmt.Fprintf(env.Stdout, "\n%d converted, %d unchanged, %d partial, %d failed\n",
			s.Succeeded, s.Unchanged, s.Partial, s.Failed)
	}
}

func printResult(env *Environment, r ConversionResult, po printOptions) {
	if r.Err != nil {
		fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.SourcePath, r.Err)
		return
	}
	res := r.Result
	if res == nil {
		return
	}

	if !po.quiet {
		for _, w := range res.Warnings {
			fmt.Fprintf(env.Stderr, "warning: %s: %s\n", r.SourcePath, w)
		}
	}

	switch res.Status {
	case md2deck.StatusDryRun:
		printOutline(env.Stdout, r.SourcePath, res.Plan)
		return
	case md2deck.StatusNoop:
		if !po.quiet {
			fmt.Fprintf(env.Stdout, "Unchanged %s\n", r.SourcePath)
		}
		return
	}

	printTargetFailures(env.Stderr, res)
	if po.quiet {
		return
	}
	for _, t := range res.Targets {
		if !t.OK() {
			continue
		}
		where := t.Artifact.Path
		if t.Artifact.Location != "" {
			where = t.Artifact.Location
		}
		if po.verbose {
			fmt.Fprintf(env.Stdout, "%s [%s] -> %s (%v)\n", r.SourcePath, t.Target, where, t.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", where)
		}
	}
	if po.verbose && res.Plan != nil {
		st := res.Plan.Stats()
		fmt.Fprintf(env.Stdout, "%s: %d slides (%d content, %d code, %d visual) in %v\n",
			r.SourcePath, st.Slides, st.Content, st.Code, st.Visual, r.Duration.Round(time.Millisecond))
	}
}

func printTargetFailures(w io.Writer, res *md2deck.Result) {
	for _, t := range res.Failed() {
		fmt.Fprintf(w, "FAILED %s [%s]: %v\n", res.SourcePath, t.Target, t.Err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
