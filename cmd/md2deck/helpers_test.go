package main

// Notes:
// - Shared fakes for the cmd tests: an in-memory Environment, a scripted
//   DeckConverter and a fixed-size Pool.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	md2deck "github.com/alnah/go-md2deck"
)

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestEnv returns an environment with captured output and vars as the
// only environment variables. The pool is the real one.
func newTestEnv(vars map[string]string) *testEnv {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Environment: &Environment{
			Now:    func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) },
			Stdout: stdout,
			Stderr: stderr,
			Getenv: func(k string) string { return vars[k] },
			Environ: func() []string {
				out := make([]string, 0, len(vars))
				for k, v := range vars {
					out = append(out, k+"="+v)
				}
				return out
			},
			NewPool: func(size int, factory converterFactory) Pool {
				return NewConverterPool(size, factory)
			},
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeConverter returns whatever convert yields and counts calls.
type fakeConverter struct {
	convert func(ctx context.Context, in md2deck.Input) (*md2deck.Result, error)
	calls   atomic.Int32
	closed  atomic.Bool
}

func (f *fakeConverter) Convert(ctx context.Context, in md2deck.Input) (*md2deck.Result, error) {
	f.calls.Add(1)
	if f.convert == nil {
		return &md2deck.Result{SourcePath: in.SourcePath, Status: md2deck.StatusSuccess}, nil
	}
	return f.convert(ctx, in)
}

func (f *fakeConverter) Close() error {
	f.closed.Store(true)
	return nil
}

// fakePool hands out a single shared converter.
type fakePool struct {
	conv       DeckConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
}

func (p *fakePool) Acquire() (DeckConverter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.conv, nil
}

func (p *fakePool) Release(DeckConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *fakePool) Size() int    { return p.size }
func (p *fakePool) Close() error { return nil }

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

const sampleArticle = `---
title: Scaling Workers
author: Ada
date: 2025-01-15
---

## Why workers

Workers spread load across cores so a slow job never blocks the queue.

- bounded pools
- backpressure

## Implementation

` + "```go" + `
func worker(jobs <-chan int) {
	for j := range jobs {
		process(j)
	}
}
` + "```" + `

## Conclusion

Pools keep latency flat under load.
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
