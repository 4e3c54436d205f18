// Package parallel runs independent jobs on a bounded number of goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEach executes fn(ctx, i) for i in [0, n) on at most limit goroutines.
// A limit <= 0 means the number of CPU cores. The first error cancels ctx for
// the remaining jobs and is returned.
func ForEach(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return nil
	}

	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if limit > n {
		limit = n // No need for more workers than jobs
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// ForEachWithThreshold runs jobs sequentially on the calling goroutine when
// n does not exceed threshold, and in parallel otherwise.
func ForEachWithThreshold(ctx context.Context, n, threshold int, fn func(ctx context.Context, i int) error) error {
	if n <= threshold {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}
	return ForEach(ctx, n, 0, fn)
}
