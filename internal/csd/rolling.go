package csd

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Rolling is a partial series aligned to the input indices.
// Entries with Defined[i] == false carry no signal and must not be read as zero.
type Rolling struct {
	Values  []float64
	Defined []bool
}

func newRolling(n int) Rolling {
	return Rolling{
		Values:  make([]float64, n),
		Defined: make([]bool, n),
	}
}

func (r Rolling) set(i int, v float64) {
	r.Values[i] = v
	r.Defined[i] = true
}

// Len returns the aligned length.
func (r Rolling) Len() int {
	return len(r.Values)
}

// At returns the value at i and whether it is defined.
func (r Rolling) At(i int) (float64, bool) {
	if i < 0 || i >= len(r.Values) || !r.Defined[i] {
		return 0, false
	}
	return r.Values[i], true
}

// Latest returns the last defined value.
func (r Rolling) Latest() (float64, bool) {
	for i := len(r.Values) - 1; i >= 0; i-- {
		if r.Defined[i] {
			return r.Values[i], true
		}
	}
	return 0, false
}

// DefinedValues returns the defined values in index order.
func (r Rolling) DefinedValues() []float64 {
	var out []float64
	for i, ok := range r.Defined {
		if ok {
			out = append(out, r.Values[i])
		}
	}
	return out
}

// Count returns the number of defined entries.
func (r Rolling) Count() int {
	c := 0
	for _, ok := range r.Defined {
		if ok {
			c++
		}
	}
	return c
}

// RollingAR1 computes lag-1 autocorrelation for every index i >= window+1 as the
// Pearson correlation of residuals[i-window, i) and residuals[i-window-1, i-1).
// Only past residuals enter index i. Zero-variance windows stay undefined.
func RollingAR1(residuals []float64, window int) Rolling {
	n := len(residuals)
	out := newRolling(n)
	if window < 2 {
		return out
	}

	for i := window + 1; i < n; i++ {
		x := residuals[i-window : i]
		y := residuals[i-window-1 : i-1]
		if !(stat.Variance(x, nil) > 0) || !(stat.Variance(y, nil) > 0) {
			continue
		}
		c := stat.Correlation(x, y, nil)
		if math.IsNaN(c) {
			continue
		}
		out.set(i, clampUnit(c))
	}
	return out
}

// RollingVariance computes the unbiased sample variance of residuals[i-window, i)
// for every index i >= window.
func RollingVariance(residuals []float64, window int) Rolling {
	n := len(residuals)
	out := newRolling(n)
	if window < 2 {
		return out
	}

	for i := window; i < n; i++ {
		v := stat.Variance(residuals[i-window:i], nil)
		if math.IsNaN(v) {
			continue
		}
		out.set(i, v)
	}
	return out
}

// clampUnit bounds a correlation coefficient to [-1, 1].
func clampUnit(c float64) float64 {
	if c > 1 {
		return 1
	}
	if c < -1 {
		return -1
	}
	return c
}
