package lppl

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"flr-tracker/internal/domain"
)

// maxCondition bounds the condition number of the normal equations.
const maxCondition = 1e15

// outcome classifies a grid point evaluation.
type outcome int

const (
	outcomeAdmissible outcome = iota
	outcomeDomain
	outcomeSolve
	outcomeSign
	outcomeOscillation
	outcomeFit
)

// window is the prepared fitting data shared read-only by all workers.
type window struct {
	t     []float64 // time axis
	y     []float64 // log price
	tLast float64
	ssTot float64
}

func newWindow(t, y []float64) *window {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	ssTot := 0.0
	for _, v := range y {
		d := v - mean
		ssTot += d * d
	}

	return &window{t: t, y: y, tLast: t[len(t)-1], ssTot: ssTot}
}

// evaluate fits A, B, C for one grid point and applies the admissibility rules.
func (w *window) evaluate(p point, minR2 float64) (domain.LPPLCandidate, outcome) {
	tc := w.tLast + p.offset
	n := len(w.t)

	f := make([]float64, n)
	g := make([]float64, n)
	for k, tk := range w.t {
		dt := tc - tk
		if !(dt > 0) {
			return domain.LPPLCandidate{}, outcomeDomain
		}
		pow := math.Pow(dt, p.m)
		f[k] = pow
		g[k] = pow * math.Cos(p.omega*math.Log(dt)+p.phi)
	}

	// Normal equations for the design matrix [1 f g].
	var sf, sg, sff, sfg, sgg, sy, sfy, sgy float64
	for k := 0; k < n; k++ {
		fk, gk, yk := f[k], g[k], w.y[k]
		sf += fk
		sg += gk
		sff += fk * fk
		sfg += fk * gk
		sgg += gk * gk
		sy += yk
		sfy += fk * yk
		sgy += gk * yk
	}
	xtx := mat.NewSymDense(3, []float64{
		float64(n), sf, sg,
		sf, sff, sfg,
		sg, sfg, sgg,
	})
	xty := mat.NewVecDense(3, []float64{sy, sfy, sgy})

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return domain.LPPLCandidate{}, outcomeSolve
	}
	if c := chol.Cond(); math.IsNaN(c) || c > maxCondition {
		return domain.LPPLCandidate{}, outcomeSolve
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil {
		return domain.LPPLCandidate{}, outcomeSolve
	}
	a, b, c := beta.AtVec(0), beta.AtVec(1), beta.AtVec(2)

	if !(b < 0) {
		return domain.LPPLCandidate{}, outcomeSign
	}
	if !(math.Abs(c) < math.Abs(b)) {
		return domain.LPPLCandidate{}, outcomeOscillation
	}
	if !(w.ssTot > 0) {
		return domain.LPPLCandidate{}, outcomeFit
	}

	ssRes := 0.0
	for k := 0; k < n; k++ {
		r := w.y[k] - (a + b*f[k] + c*g[k])
		ssRes += r * r
	}
	r2 := 1 - ssRes/w.ssTot
	if !(r2 > minR2) {
		return domain.LPPLCandidate{}, outcomeFit
	}

	return domain.LPPLCandidate{
		TcOffset: p.offset,
		M:        p.m,
		Omega:    p.omega,
		Phi:      p.phi,
		A:        a,
		B:        b,
		C:        c,
		R2:       r2,
	}, outcomeAdmissible
}

// tally accumulates per-outcome counts.
type tally struct {
	domain, solve, sign, oscillation, fit, admissible int
}

func (t *tally) add(o outcome) {
	switch o {
	case outcomeAdmissible:
		t.admissible++
	case outcomeDomain:
		t.domain++
	case outcomeSolve:
		t.solve++
	case outcomeSign:
		t.sign++
	case outcomeOscillation:
		t.oscillation++
	case outcomeFit:
		t.fit++
	}
}

func (t *tally) merge(o tally) {
	t.domain += o.domain
	t.solve += o.solve
	t.sign += o.sign
	t.oscillation += o.oscillation
	t.fit += o.fit
	t.admissible += o.admissible
}
