package md2deck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alnah/go-md2deck/internal/assets"
	"github.com/alnah/go-md2deck/internal/dateutil"
	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/ledger"
)

// Compile-time interface implementation checks.
var (
	_ Renderer           = (*BinaryRenderer)(nil)
	_ Renderer           = (*CloudRenderer)(nil)
	_ Renderer           = NotesRenderer{}
	_ pdfPrinter         = (*rodPrinter)(nil)
	_ assets.AssetLoader = AssetLoader(nil)
)

// Status is the overall outcome of one conversion.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusNoop    Status = "noop"
	StatusDryRun  Status = "dry-run"
)

// Input is one conversion request.
type Input struct {
	// SourcePath locates the article. Relative image paths resolve against
	// its directory, and it keys the ledger record.
	SourcePath string
	// Source holds the article bytes. When nil, SourcePath is read.
	Source  []byte
	Options Options
}

// Result reports what a conversion did.
type Result struct {
	SourcePath string
	Status     Status
	Warnings   []Warning
	// Targets follows the order of the requested targets.
	Targets []TargetResult
	// Plan is nil when the run stopped before planning or was a no-op.
	Plan *SlidePlan
	// Record is the ledger record written or reused, nil otherwise.
	Record *ledger.Record
}

// OK reports whether the run finished without a failed target.
func (r *Result) OK() bool {
	if r == nil || r.Status == StatusFailed {
		return false
	}
	for _, t := range r.Targets {
		if !t.OK() {
			return false
		}
	}
	return true
}

// Failed returns the targets that did not produce an artifact.
func (r *Result) Failed() []TargetResult {
	var out []TargetResult
	for _, t := range r.Targets {
		if !t.OK() {
			out = append(out, t)
		}
	}
	return out
}

type converterConfig struct {
	timeout   time.Duration
	assetPath string
	cloud     CloudOptions
	clock     func() time.Time
}

// Converter turns articles into decks. Create with NewConverter, call
// Convert once per source, and Close when done. A Converter owns at most one
// headless browser; Convert may be called concurrently.
type Converter struct {
	cfg       converterConfig
	log       *zap.Logger
	store     ledger.Store
	loader    AssetLoader
	renderers map[Target]Renderer
	binary    *BinaryRenderer
}

// NewConverter creates a Converter. The binary, notes and cloud renderers are
// registered unless replaced with WithRenderer.
// Returns ErrInvalidAssetPath if WithAssetPath names an unusable directory.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout: DefaultTimeout,
			clock:   time.Now,
		},
		log:       zap.NewNop(),
		renderers: make(map[Target]Renderer, len(AllTargets)),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		loader, err := NewAssetLoader(c.cfg.assetPath)
		if err != nil {
			return nil, err
		}
		c.loader = loader
	}

	if _, ok := c.renderers[TargetBinary]; !ok {
		c.binary = NewBinaryRenderer(c.loader, c.cfg.timeout)
		c.renderers[TargetBinary] = c.binary
	}
	if _, ok := c.renderers[TargetNotes]; !ok {
		c.renderers[TargetNotes] = NewNotesRenderer()
	}
	if _, ok := c.renderers[TargetCloud]; !ok {
		c.renderers[TargetCloud] = NewCloudRenderer(c.cfg.cloud, c.log)
	}

	return c, nil
}

// Close releases the headless browser, if one was started.
func (c *Converter) Close() error {
	if c.binary != nil {
		return c.binary.Close()
	}
	return nil
}

// Convert runs parse, plan and render for one source.
//
// The returned error is a *ConfigurationError, *IOError or
// *MalformedDocumentError when the run stopped before rendering, and wraps
// ErrAllTargetsFailed when no target produced an artifact. Failures of some
// targets only are reported in Result.Targets with a nil error.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	start := c.cfg.clock()

	if input.SourcePath == "" {
		return nil, &ConfigurationError{Field: "SourcePath", Reason: "cannot be blank"}
	}
	source, err := filepath.Abs(input.SourcePath)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: input.SourcePath, Err: err}
	}
	log := c.log.With(zap.String("source", source))

	opts := input.Options.withDefaults(source)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.loader.LoadStyle(opts.Theme); err != nil {
		return nil, &ConfigurationError{Field: "Theme", Reason: err.Error()}
	}

	data := input.Source
	if data == nil {
		data, err = os.ReadFile(source) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, &IOError{Op: "read", Path: source, Err: err}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{SourcePath: source}

	doc, warnings, err := Parse(data, ParseOptions{BaseDir: filepath.Dir(source)})
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)

	plan, warnings := Plan(doc, opts.planConfig())
	res.Warnings = append(res.Warnings, warnings...)
	if w, ok := c.formatTitleDate(plan, opts.DateFormat); !ok {
		res.Warnings = append(res.Warnings, w)
	}
	log.Debug("planned deck",
		zap.Int("slides", len(plan.Slides)),
		zap.Int("max_words", plan.MaxWordsPerSlide),
		zap.Int("warnings", len(res.Warnings)),
	)

	if opts.DryRun {
		res.Status = StatusDryRun
		res.Plan = plan
		return res, nil
	}

	snapshot := opts.snapshot()
	hash := Fingerprint(doc, snapshot)

	store := c.store
	if store == nil {
		store = ledger.NewFileStore(opts.OutputDir)
	}

	if !opts.ForceRegenerate {
		rec, err := store.Get(ctx, source)
		switch {
		case err == nil:
			if reusable(rec, hash, opts.Targets) {
				log.Info("unchanged since last run", zap.String("run_id", rec.RunID))
				res.Status = StatusNoop
				res.Targets = cachedResults(rec, opts.Targets)
				res.Record = rec
				return res, nil
			}
		case errors.Is(err, ledger.ErrNotFound):
		default:
			res.Warnings = append(res.Warnings, Warning{
				Stage:   StageLedger,
				Code:    WarnLedgerRead,
				Message: err.Error(),
			})
		}
	}

	job := &RenderJob{
		SourcePath: source,
		Stem:       fileutil.Stem(source),
		OutputDir:  opts.OutputDir,
		Plan:       plan,
		Doc:        doc,
		Options:    opts,
	}
	res.Plan = plan
	res.Targets = RenderAll(ctx, job, opts.Targets, c.renderers)

	var errs []error
	for _, t := range res.Targets {
		if t.OK() {
			log.Info("target rendered",
				zap.Stringer("target", t.Target),
				zap.String("path", t.Artifact.Path),
				zap.Duration("elapsed", t.Duration),
			)
			continue
		}
		log.Warn("target failed", zap.Stringer("target", t.Target), zap.Error(t.Err))
		errs = append(errs, fmt.Errorf("%s: %w", t.Target, t.Err))
	}

	if len(errs) == len(res.Targets) {
		res.Status = StatusFailed
		return res, fmt.Errorf("%w: %w", ErrAllTargetsFailed, errors.Join(errs...))
	}

	res.Status = StatusSuccess
	rec := &ledger.Record{
		RunID:       uuid.NewString(),
		SourcePath:  source,
		ContentHash: hash,
		Config:      snapshot,
		SlideCount:  len(plan.Slides),
		Stats:       plan.Stats(),
		Targets:     targetRecords(res.Targets),
		Warnings:    len(res.Warnings),
		DurationMS:  c.cfg.clock().Sub(start).Milliseconds(),
		CreatedAt:   c.cfg.clock().UTC(),
	}
	if err := store.Put(ctx, rec); err != nil {
		log.Warn("ledger write failed", zap.Error(err))
		res.Warnings = append(res.Warnings, Warning{
			Stage:   StageLedger,
			Code:    WarnLedgerWrite,
			Message: err.Error(),
		})
	} else {
		res.Record = rec
	}
	return res, nil
}

// formatTitleDate applies the date format to the title slide. An unusable
// format leaves the raw date in place and is reported as a warning.
func (c *Converter) formatTitleDate(plan *SlidePlan, format string) (Warning, bool) {
	if len(plan.Slides) == 0 {
		return Warning{}, true
	}
	title, ok := plan.Slides[0].Spec.(*TitleSlide)
	if !ok {
		return Warning{}, true
	}
	date, err := dateutil.FormatDate(title.Date, format, c.cfg.clock())
	if err != nil {
		return Warning{
			Stage:   StagePlanner,
			Code:    WarnDateFormat,
			Message: fmt.Sprintf("title date %q kept as written: %v", title.Date, err),
		}, false
	}
	title.Date = date
	return Warning{}, true
}

// reusable reports whether rec already covers this run: same fingerprint,
// every requested target succeeded, and every local artifact is still there.
func reusable(rec *ledger.Record, hash string, targets []Target) bool {
	if rec.ContentHash != hash || !rec.Succeeded(targetStrings(targets)) {
		return false
	}
	for _, t := range targets {
		tr, _ := rec.Target(string(t))
		if tr.Path != "" && !fileutil.FileExists(tr.Path) {
			return false
		}
	}
	return true
}

func cachedResults(rec *ledger.Record, targets []Target) []TargetResult {
	out := make([]TargetResult, len(targets))
	for i, t := range targets {
		tr, _ := rec.Target(string(t))
		out[i] = TargetResult{
			Target:   t,
			Artifact: &Artifact{Target: t, Path: tr.Path, Location: tr.Location},
			Cached:   true,
		}
	}
	return out
}

func targetRecords(results []TargetResult) []ledger.TargetRecord {
	out := make([]ledger.TargetRecord, len(results))
	for i, r := range results {
		tr := ledger.TargetRecord{Target: string(r.Target), Status: ledger.StatusOK}
		if r.OK() {
			tr.Path = r.Artifact.Path
			tr.Location = r.Artifact.Location
		} else {
			tr.Status = ledger.StatusFailed
			tr.Error = r.Err.Error()
		}
		out[i] = tr
	}
	return out
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithStore sets the generation ledger. Without it each run keeps a YAML
// record in its output directory.
func WithStore(store ledger.Store) Option {
	return func(c *Converter) {
		c.store = store
	}
}

// WithRenderer registers r for r.Target(), replacing the default renderer.
func WithRenderer(r Renderer) Option {
	return func(c *Converter) {
		c.renderers[r.Target()] = r
	}
}

// WithAssetLoader sets a custom theme and template loader.
// Takes precedence over WithAssetPath.
func WithAssetLoader(loader AssetLoader) Option {
	return func(c *Converter) {
		c.loader = loader
	}
}

// WithAssetPath loads themes and templates from dir before the embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithCloud configures the cloud deck renderer.
func WithCloud(opts CloudOptions) Option {
	return func(c *Converter) {
		c.cfg.cloud = opts
	}
}

// WithTimeout sets the per-page print timeout of the binary deck.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2deck: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithClock replaces time.Now, for "auto" title dates and ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.cfg.clock = now
		}
	}
}
