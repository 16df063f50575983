// Package csd computes Critical Slowing Down early-warning indicators:
// Gaussian kernel detrending, rolling lag-1 autocorrelation and variance,
// and Kendall's tau trend of the autocorrelation.
package csd

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Detrend smooths values with a two-sided Gaussian kernel (Nadaraya-Watson)
// of the given bandwidth in timesteps and returns the trend and residual series.
// Weights are renormalized at every index, so no boundary handling is needed.
// The outer loop is split across workers; 0 means GOMAXPROCS.
func Detrend(values []float64, bandwidth int, workers int) (trend, residuals []float64) {
	n := len(values)
	trend = make([]float64, n)
	residuals = make([]float64, n)
	if n == 0 {
		return trend, residuals
	}
	if bandwidth <= 0 {
		copy(trend, values)
		return trend, residuals
	}

	// Weights depend only on |i-j|.
	kernel := make([]float64, n)
	h := float64(bandwidth)
	for d := range kernel {
		z := float64(d) / h
		kernel[d] = math.Exp(-0.5 * z * z)
	}

	// Sum deviations from the first value so a constant series detrends to exactly zero.
	base := values[0]

	parallelRange(n, workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			var sumW, sumWX float64
			for j := 0; j < n; j++ {
				d := j - i
				if d < 0 {
					d = -d
				}
				w := kernel[d]
				sumW += w
				sumWX += w * (values[j] - base)
			}
			trend[i] = base + sumWX/sumW
			residuals[i] = values[i] - trend[i]
		}
	})

	return trend, residuals
}

// parallelRange runs fn over disjoint contiguous chunks of [0, n).
func parallelRange(n, workers int, fn func(lo, hi int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
