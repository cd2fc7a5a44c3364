package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	md2deck "github.com/alnah/go-md2deck"
)

// ErrConverterInit marks files left unconverted because a worker could not
// start its converter.
var ErrConverterInit = errors.New("failed to initialize converter")

// ConversionResult holds the outcome of a single source.
type ConversionResult struct {
	SourcePath string
	Result     *md2deck.Result // may be set alongside Err when every target failed
	Err        error
	Duration   time.Duration
}

// batchParams groups parameters shared by every file of a batch.
type batchParams struct {
	options md2deck.Options
	timeout time.Duration // per file; 0 = no limit
	baseDir string        // directory input; its layout is mirrored under the output dir
}

// convertBatch converts files concurrently using the converter pool.
// Results follow the order of files.
func convertBatch(ctx context.Context, pool Pool, files []string, params batchParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire()
			if err != nil {
				// Another worker may still drain the queue; this one fails
				// whatever it picks up.
				for idx := range jobs {
					results[idx] = ConversionResult{
						SourcePath: files[idx],
						Err:        fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{SourcePath: files[idx], Err: ctx.Err()}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts one source under the per-file timeout.
func convertFile(ctx context.Context, conv DeckConverter, path string, params batchParams) ConversionResult {
	start := time.Now()
	if params.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.timeout)
		defer cancel()
	}

	opts := params.options
	opts.OutputDir = resolveOutputDir(path, opts.OutputDir, params.baseDir)

	res, err := conv.Convert(ctx, md2deck.Input{SourcePath: path, Options: opts})
	return ConversionResult{
		SourcePath: path,
		Result:     res,
		Err:        err,
		Duration:   time.Since(start),
	}
}

// ResultSummary counts sources by outcome.
type ResultSummary struct {
	Succeeded int
	Unchanged int
	Partial   int
	Failed    int
}

// countResults tallies the outcome of every source.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Result != nil && r.Result.Status == md2deck.StatusNoop:
			summary.Unchanged++
		case r.Result != nil && !r.Result.OK():
			summary.Partial++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first failed source error, or nil.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
