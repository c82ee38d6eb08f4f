// Package preprocess applies image filters to many files in parallel.
//
// A Pool runs one stateless Task per input path on a fixed number of
// workers. Tasks write independent output files, so nothing is shared
// between them and results are neither collected nor ordered.
//
// Blur is a full Gaussian: imaging sizes the kernel at about 6 sigma, so the
// default sigma of 5 reaches 15 pixels either side. OpenCV's
// GaussianBlur(img, (7,7), 5) truncates the same sigma to a 7x7 window and
// blurs far less; a comparable result here needs a sigma near 2.
package preprocess

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task processes a single input.
type Task func(ctx context.Context, input string) error

// Pool is a fixed-size worker pool.
type Pool struct {
	Workers int // defaults to runtime.NumCPU()
	Logger  *zap.Logger
}

// Stats summarizes a completed run.
type Stats struct {
	Processed int
	Elapsed   time.Duration
}

// Run applies task to every input with at most p.Workers tasks in flight.
// The first failure cancels the context handed to the remaining tasks and
// is returned; inputs not yet started are skipped.
func (p Pool) Run(ctx context.Context, inputs []string, task Task) (Stats, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	processed := make(chan struct{}, len(inputs))
	for _, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			if err := task(gctx, in); err != nil {
				logger.Error("task failed", zap.String("input", in), zap.Error(err))
				return fmt.Errorf("processing %s: %w", in, err)
			}
			logger.Debug("task done", zap.String("input", in), zap.Duration("took", time.Since(t)))
			processed <- struct{}{}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	stats := Stats{Processed: len(processed), Elapsed: time.Since(start)}
	logger.Info("pool finished",
		zap.Int("inputs", len(inputs)),
		zap.Int("processed", stats.Processed),
		zap.Int("workers", workers),
		zap.Duration("elapsed", stats.Elapsed))
	return stats, err
}

// Glob expands pattern into a sorted list of matching paths.
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
