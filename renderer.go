package md2deck

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// RenderJob is everything a renderer needs for one source.
type RenderJob struct {
	SourcePath string
	Stem       string // artifact base name
	OutputDir  string
	Plan       *SlidePlan
	Doc        *Document
	Options    Options
}

// targetDir returns the per-target subdirectory under OutputDir.
func (j *RenderJob) targetDir(t Target) string {
	return filepath.Join(j.OutputDir, string(t))
}

// Artifact describes what a renderer produced.
type Artifact struct {
	Target Target
	// Path is the primary local file (PDF, notes text, URL file).
	Path string
	// Location is a remote address, empty for local targets.
	Location string
	// SlideNotes holds the speaker notes of each slide as delivered.
	SlideNotes []string
}

// Renderer turns a slide plan into one output target.
// Implementations must be safe to call concurrently with other renderers.
type Renderer interface {
	Target() Target
	Render(ctx context.Context, job *RenderJob) (*Artifact, error)
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target   Target
	Artifact *Artifact
	Err      error
	Duration time.Duration
	Cached   bool // artifact reused from an earlier run
}

// OK reports whether the target produced an artifact.
func (r TargetResult) OK() bool { return r.Err == nil && r.Artifact != nil }

// RenderAll runs one goroutine per target and waits for all of them. A failing
// target never cancels its siblings. Results follow the order of targets.
func RenderAll(ctx context.Context, job *RenderJob, targets []Target, registry map[Target]Renderer) []TargetResult {
	results := make([]TargetResult, len(targets))
	if len(targets) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(len(targets))

	for i, t := range targets {
		g.Go(func() error {
			results[i] = renderOne(ctx, job, t, registry[t])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func renderOne(ctx context.Context, job *RenderJob, t Target, r Renderer) (res TargetResult) {
	start := time.Now()
	res.Target = t
	defer func() {
		if p := recover(); p != nil {
			res.Artifact = nil
			res.Err = fmt.Errorf("%w: %s: %v", ErrRendererPanicked, t, p)
		}
		res.Duration = time.Since(start)
	}()

	if r == nil {
		res.Err = fmt.Errorf("%w: %s", ErrNoRenderer, t)
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	art, err := r.Render(ctx, job)
	if err != nil {
		res.Err = err
		return res
	}
	if art == nil {
		res.Err = fmt.Errorf("%s renderer returned no artifact", t)
		return res
	}
	if art.Target == "" {
		art.Target = t
	}
	res.Artifact = art
	return res
}
