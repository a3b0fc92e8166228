// Package parallel runs independent units of work on a bounded worker pool
// and recombines their results in input order.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a worker count: zero or negative means NumCPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Map applies fn to every element of in using at most workers goroutines.
// out[i] always corresponds to in[i]. The first error cancels the remaining
// work and is returned; no partial result is returned with it.
func Map[T, R any](ctx context.Context, workers int, in []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	if len(in) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))

	for i := range in {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, in[i])
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Filter returns the elements of in for which keep is true, in input order.
// The input is split into contiguous ranges, one per worker, so cheap
// predicates over large inputs do not pay a goroutine per element.
func Filter[T any](ctx context.Context, workers int, in []T, keep func(item T) bool) ([]T, error) {
	if len(in) == 0 {
		return nil, nil
	}

	n := Workers(workers)
	if n > len(in) {
		n = len(in)
	}
	size := (len(in) + n - 1) / n

	parts := make([][]T, n)
	g, gctx := errgroup.WithContext(ctx)
	for p := range n {
		lo := p * size
		hi := min(lo+size, len(in))
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			var kept []T
			for _, item := range in[lo:hi] {
				if keep(item) {
					kept = append(kept, item)
				}
			}
			parts[p] = kept
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []T
	for _, part := range parts {
		out = append(out, part...)
	}
	return out, nil
}
