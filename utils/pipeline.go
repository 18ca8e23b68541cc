package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// PipelineResult summarizes one run.
type PipelineResult struct {
	TotalItems     int
	ProcessedItems int
	OutputRows     int
	Errors         []error
	Duration       time.Duration
}

// Pipeline fans inputs out to concurrent workers and funnels their rows
// into a single consumer goroutine.
type Pipeline[I, O any] struct {
	concurrency int
	bufferSize  int
	failFast    bool
}

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	concurrency int
	bufferSize  int
	failFast    bool
}

func WithConcurrency(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithBufferSize(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithFailFast stops feeding workers after the first error.
func WithFailFast() PipelineOption {
	return func(c *pipelineConfig) { c.failFast = true }
}

func NewPipeline[I, O any](opts ...PipelineOption) *Pipeline[I, O] {
	cfg := &pipelineConfig{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.bufferSize == 0 {
		cfg.bufferSize = cfg.concurrency * 4
	}
	return &Pipeline[I, O]{
		concurrency: cfg.concurrency,
		bufferSize:  cfg.bufferSize,
		failFast:    cfg.failFast,
	}
}

type batchResult[O any] struct {
	rows []O
	err  error
}

// Run calls process for every input on the worker pool and hands each
// non-empty result to consume. consume is never called concurrently.
// The returned error is the context error, if any; item errors are
// collected in the result.
func (p *Pipeline[I, O]) Run(
	ctx context.Context,
	inputs []I,
	process func(ctx context.Context, input I) ([]O, error),
	consume func(rows []O) error,
) (*PipelineResult, error) {
	start := time.Now()
	result := &PipelineResult{TotalItems: len(inputs)}
	if len(inputs) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan I)
	results := make(chan batchResult[O], p.bufferSize)

	var workers sync.WaitGroup
	for w := 0; w < min(p.concurrency, len(inputs)); w++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for input := range jobs {
				results <- p.safeProcess(ctx, input, process)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, input := range inputs {
			select {
			case jobs <- input:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	for batch := range results {
		if batch.err == nil && len(batch.rows) > 0 {
			if err := consume(batch.rows); err != nil {
				batch.err = fmt.Errorf("consume error: %w", err)
			}
		}
		if batch.err != nil {
			result.Errors = append(result.Errors, batch.err)
			if p.failFast {
				cancel()
			}
			continue
		}
		result.ProcessedItems++
		result.OutputRows += len(batch.rows)
	}

	result.Duration = time.Since(start)
	if err := ctx.Err(); err != nil && !(p.failFast && result.HasErrors()) {
		return result, err
	}
	return result, nil
}

func (p *Pipeline[I, O]) safeProcess(
	ctx context.Context,
	input I,
	process func(ctx context.Context, input I) ([]O, error),
) (res batchResult[O]) {
	defer func() {
		if r := recover(); r != nil {
			res = batchResult[O]{err: fmt.Errorf("panic processing input: %v", r)}
		}
	}()
	rows, err := process(ctx, input)
	return batchResult[O]{rows: rows, err: err}
}

func (r *PipelineResult) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *PipelineResult) FirstError() error {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return nil
}

// Err joins every collected error.
func (r *PipelineResult) Err() error {
	return errors.Join(r.Errors...)
}
