// Package parallel splits data-parallel raster work across a bounded pool of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a requested worker count: values <= 0 select runtime.NumCPU()
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Band is a half-open range of rows [Start, End) handled by one task
type Band struct {
	Index int
	Start int
	End   int
}

// Bands splits n rows into at most `workers` contiguous bands of near-equal size.
// Bands are returned in row order so results can be merged deterministically.
func Bands(n, workers int) []Band {
	if n <= 0 {
		return nil
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}

	// Ceiling division so every row is covered
	per := (n + workers - 1) / workers
	bands := make([]Band, 0, workers)
	for start := 0; start < n; start += per {
		end := min(start+per, n)
		bands = append(bands, Band{Index: len(bands), Start: start, End: end})
	}
	return bands
}

// ForEachBand runs fn once per band of [0, n) using at most `workers` goroutines.
// The first error returned by fn is reported after all tasks finish.
func ForEachBand(n, workers int, fn func(b Band) error) error {
	bands := Bands(n, workers)
	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for _, b := range bands {
		b := b
		g.Go(func() error {
			return fn(b)
		})
	}
	return g.Wait()
}

// Rows runs fn once per band of [0, n) using at most `workers` goroutines, for work that
// cannot fail
func Rows(n, workers int, fn func(b Band)) {
	_ = ForEachBand(n, workers, func(b Band) error {
		fn(b)
		return nil
	})
}

// ForEach runs fn(i) for every i in [0, n) using at most `workers` goroutines
func ForEach(n, workers int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(Workers(workers))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}
