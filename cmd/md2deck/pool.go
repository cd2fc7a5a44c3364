package main

import (
	"context"
	"errors"
	"runtime"
	"sync"

	md2deck "github.com/alnah/go-md2deck"
)

// MaxWorkers caps --workers. Each worker may own a headless browser.
const MaxWorkers = 32

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("converter pool closed")

// DeckConverter is the part of md2deck.Converter the CLI uses.
type DeckConverter interface {
	Convert(ctx context.Context, input md2deck.Input) (*md2deck.Result, error)
	Close() error
}

// Compile-time interface implementation check.
var _ DeckConverter = (*md2deck.Converter)(nil)

// converterFactory creates one converter for the pool.
type converterFactory func() (DeckConverter, error)

// Pool hands out converters to batch workers.
type Pool interface {
	Acquire() (DeckConverter, error)
	Release(DeckConverter)
	Size() int
	Close() error
}

// ConverterPool manages up to size converters, one browser each.
// Converters are created lazily on first acquire to avoid startup delay.
type ConverterPool struct {
	size       int
	factory    converterFactory
	converters []DeckConverter
	idle       chan DeckConverter
	mu         sync.Mutex
	created    int
	closed     bool
}

// Compile-time check that ConverterPool implements Pool.
var _ Pool = (*ConverterPool)(nil)

// NewConverterPool creates a pool with capacity for n converters.
func NewConverterPool(n int, factory converterFactory) *ConverterPool {
	if n < 1 {
		n = 1
	}
	return &ConverterPool{
		size:       n,
		factory:    factory,
		converters: make([]DeckConverter, 0, n),
		idle:       make(chan DeckConverter, n),
	}
}

// Acquire gets a converter, creating one if capacity remains.
// Blocks if all converters are in use.
func (p *ConverterPool) Acquire() (DeckConverter, error) {
	select {
	case c, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return c, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock: NewConverter may load assets from disk.
		c, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.converters = append(p.converters, c)
		p.mu.Unlock()
		return c, nil
	}
	p.mu.Unlock()

	c, ok := <-p.idle
	if !ok {
		return nil, ErrPoolClosed
	}
	return c, nil
}

// Release returns a converter to the pool.
func (p *ConverterPool) Release(c DeckConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.idle <- c
	}
}

// Close releases every browser the pool started.
func (p *ConverterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	converters := p.converters
	p.mu.Unlock()

	var errs []error
	for _, c := range converters {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ConverterPool) Size() int {
	return p.size
}

// resolvePoolSize determines the pool size.
// Priority: explicit value > GOMAXPROCS-based calculation.
func resolvePoolSize(workers int) int {
	if workers > 0 {
		return min(workers, MaxWorkers)
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / 2
	return max(1, min(n, 8))
}
