// Package lppl searches for Log-Periodic Power Law bubble signatures:
//
//	ln p(t) = A + B·(tc−t)^m + C·(tc−t)^m·cos(ω·ln(tc−t) + φ)
//
// The nonlinear parameters (tc, m, ω, φ) are enumerated on a fixed grid and
// the linear parameters (A, B, C) are solved by ordinary least squares.
package lppl

import "math"

// Grid is the set of nonlinear parameter values to enumerate.
// TcOffsets are measured from the last observation in time-axis units.
type Grid struct {
	TcOffsets []float64
	M         []float64
	Omega     []float64
	Phi       []float64
}

// DefaultGrid returns the standard 12×5×7×4 grid.
// m=0.1, m=0.9 and ω=5, ω=14 lie outside the final range checks. They must stay:
// smooth growth fits best at m=0.9, ω=5 and is rejected only by those checks.
func DefaultGrid() Grid {
	return Grid{
		TcOffsets: []float64{10, 20, 30, 45, 60, 80, 100, 125, 150, 180, 220, 260},
		M:         []float64{0.1, 0.3, 0.5, 0.7, 0.9},
		Omega:     []float64{5, 7, 8, 9, 10, 12, 14},
		Phi:       []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2},
	}
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	return len(g.TcOffsets) * len(g.M) * len(g.Omega) * len(g.Phi)
}

// point is one enumerated nonlinear parameter set.
type point struct {
	offset float64
	m      float64
	omega  float64
	phi    float64
}
