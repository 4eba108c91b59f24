package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// Sentinel errors.
var (
	// ErrBatchSize indicates a non-positive batch size.
	ErrBatchSize = errors.New("batch size must be positive")

	// ErrNoBatches indicates a merge over zero batch results.
	ErrNoBatches = errors.New("no batches to merge")
)

// Progress describes how far a run has come. Fraction is Processed divided
// by Total and always ends at exactly 1 on a completed run.
type Progress struct {
	Fraction  float64
	Processed int
	Total     int
}

// ProgressFunc receives a progress report after every completed batch.
type ProgressFunc func(Progress)

// Yielder pauses between batches so co-operative work can run. Yield is
// called once after every batch except the last.
type Yielder interface {
	Yield(ctx context.Context)
}

// schedYielder hands the processor to the Go scheduler.
type schedYielder struct{}

func (schedYielder) Yield(context.Context) { runtime.Gosched() }

// FrameLimiter returns a Yielder that paces batches to a frame budget of
// fps frames per second. If a batch already took longer than a frame the
// yield returns immediately. Non-positive fps defaults to 60.
func FrameLimiter(fps int) Yielder {
	if fps <= 0 {
		fps = 60
	}
	return &frameLimiter{interval: time.Second / time.Duration(fps)}
}

type frameLimiter struct {
	interval time.Duration
	last     time.Time
}

func (f *frameLimiter) Yield(ctx context.Context) {
	now := time.Now()
	if f.last.IsZero() {
		f.last = now
		return
	}
	wait := f.interval - now.Sub(f.last)
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	f.last = time.Now()
}

type config struct {
	progress ProgressFunc
	yielder  Yielder
}

// Option configures a batch run.
type Option func(*config)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) { c.progress = fn }
}

// WithYielder replaces the default scheduler yield.
func WithYielder(y Yielder) Option {
	return func(c *config) { c.yielder = y }
}

func newConfig(opts []Option) config {
	cfg := config{yielder: schedYielder{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.yielder == nil {
		cfg.yielder = schedYielder{}
	}
	return cfg
}

func (c config) report(processed, total int) {
	if c.progress == nil {
		return
	}
	c.progress(Progress{
		Fraction:  float64(processed) / float64(total),
		Processed: processed,
		Total:     total,
	})
}

// Process runs fn over items in batches of the given size, in order. The
// per-batch results are collected in batch order, so the concatenation of
// all outputs is deterministic for a given input. The first transform error
// stops the run and is returned wrapped with the failing batch index.
func Process[T, R any](ctx context.Context, items []T, size int, fn func(context.Context, []T) (R, error), opts ...Option) ([]R, error) {
	if size <= 0 {
		return nil, fmt.Errorf("process: %w", ErrBatchSize)
	}
	cfg := newConfig(opts)

	total := len(items)
	results := make([]R, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		out, err := fn(ctx, items[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", len(results), err)
		}
		results = append(results, out)
		cfg.report(end, total)
		if end < total {
			cfg.yielder.Yield(ctx)
		}
	}
	return results, nil
}

// ProcessMerge runs fn over items in batches and folds the per-batch maps
// into a single document under the merge spec. Running over zero items
// returns ErrNoBatches, not an empty document.
func ProcessMerge[T any](ctx context.Context, items []T, size int, fn func(context.Context, []T) (map[string]any, error), spec MergeSpec, opts ...Option) (map[string]any, error) {
	results, err := Process(ctx, items, size, fn, opts...)
	if err != nil {
		return nil, err
	}
	return Merge(results, spec)
}

// Generate produces total items by calling gen for every index from 0 to
// total-1, batched like Process: progress after every batch, a yield
// between batches. The output order always matches the index order.
func Generate[R any](ctx context.Context, total, size int, gen func(i int) R, opts ...Option) ([]R, error) {
	if size <= 0 {
		return nil, fmt.Errorf("generate: %w", ErrBatchSize)
	}
	cfg := newConfig(opts)

	if total <= 0 {
		return nil, nil
	}
	out := make([]R, 0, total)
	for start := 0; start < total; start += size {
		end := min(start+size, total)
		for i := start; i < end; i++ {
			out = append(out, gen(i))
		}
		cfg.report(end, total)
		if end < total {
			cfg.yielder.Yield(ctx)
		}
	}
	return out, nil
}
