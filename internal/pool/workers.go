// Package pool provides the bounded fan-out/join primitive used by k-means
// assignment and index builds.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Range is a half-open interval [Start, End) of row positions.
type Range struct {
	Start int
	End   int
}

// Len returns the number of positions in the range.
func (r Range) Len() int { return r.End - r.Start }

// Workers runs independent closures with bounded parallelism and blocks until
// all of them complete. The zero value is not usable; use NewWorkers.
type Workers struct {
	size int
}

// NewWorkers returns a pool running at most n closures at once.
// n <= 0 selects runtime.GOMAXPROCS(0).
func NewWorkers(n int) *Workers {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Workers{size: n}
}

// Size returns the parallelism limit.
func (w *Workers) Size() int {
	return w.size
}

// Run calls fn for every i in [0, n) and waits for all calls to return.
// The first non-nil error cancels ctx for the remaining calls and is returned.
func (w *Workers) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	if n == 1 || w.size == 1 {
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

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.size)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Chunks splits [0, n) into at most Size() contiguous, non-empty ranges of
// near-equal length. The ranges are returned in ascending order.
func (w *Workers) Chunks(n int) []Range {
	if n <= 0 {
		return nil
	}
	parts := min(w.size, n)
	step := n / parts
	rem := n % parts

	out := make([]Range, 0, parts)
	start := 0
	for p := 0; p < parts; p++ {
		size := step
		if p < rem {
			size++
		}
		out = append(out, Range{Start: start, End: start + size})
		start += size
	}
	return out
}

// ForEachChunk splits [0, n) with Chunks and runs fn once per chunk.
// shard is the chunk's position in the returned order, so per-shard results
// can be merged deterministically after the join.
func (w *Workers) ForEachChunk(ctx context.Context, n int, fn func(ctx context.Context, shard int, r Range) error) error {
	chunks := w.Chunks(n)
	return w.Run(ctx, len(chunks), func(ctx context.Context, i int) error {
		return fn(ctx, i, chunks[i])
	})
}
