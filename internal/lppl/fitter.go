package lppl

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"flr-tracker/internal/domain"
)

// Default fitting options.
const (
	DefaultLookback  = 500
	DefaultMinPoints = 100
	DefaultMinR2     = 0.7
)

// Sornette range checks applied to the winning candidate.
const (
	mLow      = 0.1
	mHigh     = 0.9
	omegaLow  = 6.0
	omegaHigh = 13.0
	tcLow     = 5.0
	tcHigh    = 365.0
)

// Options configures the fitter.
type Options struct {
	Lookback  int     // trailing window length
	MinPoints int     // minimum points required to search
	MinR2     float64 // acceptance threshold, exclusive
	Grid      Grid
	Workers   int // 0 means GOMAXPROCS
}

// DefaultOptions returns the standard options.
func DefaultOptions() Options {
	return Options{
		Lookback:  DefaultLookback,
		MinPoints: DefaultMinPoints,
		MinR2:     DefaultMinR2,
		Grid:      DefaultGrid(),
	}
}

// Fitter runs the LPPL grid search.
type Fitter struct {
	opts Options
}

// NewFitter creates a fitter. Zero-valued options fall back to defaults.
func NewFitter(opts Options) *Fitter {
	d := DefaultOptions()
	if opts.Lookback <= 0 {
		opts.Lookback = d.Lookback
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = d.MinPoints
	}
	if opts.MinR2 == 0 {
		opts.MinR2 = d.MinR2
	}
	if opts.Grid.Size() == 0 {
		opts.Grid = d.Grid
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Fitter{opts: opts}
}

// Options returns the effective options.
func (f *Fitter) Options() Options {
	return f.opts
}

// Fit searches the trailing window of series for a bubble signature.
// The series must already be validated (finite, positive, increasing timestamps).
func (f *Fitter) Fit(series domain.PriceSeries) domain.LPPLReport {
	if series.Len() < f.opts.MinPoints {
		return domain.LPPLReport{
			Status: domain.LPPLStatusInsufficientData,
			Reason: fmt.Sprintf("need at least %d points, have %d", f.opts.MinPoints, series.Len()),
		}
	}

	recent := series.Tail(f.opts.Lookback)
	w := newWindow(timeAxis(recent), logValues(recent.Values))

	best, counts := f.search(w)

	report := domain.LPPLReport{
		Status: domain.LPPLStatusComputed,
		Diagnostics: domain.LPPLDiagnostics{
			GridPoints:      f.opts.Grid.Size(),
			RejectedDomain:  counts.domain,
			RejectedSolve:   counts.solve,
			RejectedSign:    counts.sign,
			RejectedOscill:  counts.oscillation,
			RejectedFit:     counts.fit,
			AdmissiblePoint: counts.admissible,
			WindowLength:    recent.Len(),
		},
	}

	if best == nil {
		report.Reason = "no admissible grid point"
		return report
	}
	report.Best = best

	tcDays := best.TcOffset
	report.Checks = domain.LPPLChecks{
		MValid:     best.M > mLow && best.M < mHigh,
		OmegaValid: best.Omega > omegaLow && best.Omega < omegaHigh,
		TcValid:    tcDays > tcLow && tcDays < tcHigh,
	}

	if report.Checks.TcValid {
		report.TcDays = &tcDays
		if recent.HasTimestamps() {
			last := recent.Timestamps[recent.Len()-1]
			tcDate := last + int64(math.Round(tcDays*float64(domain.DayMs)))
			report.TcDateMs = &tcDate
		}
	}

	if !report.Checks.MValid || !report.Checks.OmegaValid || !report.Checks.TcValid {
		report.Reason = failedChecks(report.Checks)
		return report
	}

	report.IsBubble = true
	report.Confidence = confidence(best.R2)
	return report
}

// search evaluates every grid point. Work is split by tc offset and reduced in
// offset order, so the winner does not depend on the worker count.
func (f *Fitter) search(w *window) (*domain.LPPLCandidate, tally) {
	g := f.opts.Grid
	bests := make([]*domain.LPPLCandidate, len(g.TcOffsets))
	tallies := make([]tally, len(g.TcOffsets))

	var eg errgroup.Group
	eg.SetLimit(f.opts.Workers)
	for idx, offset := range g.TcOffsets {
		idx, offset := idx, offset
		eg.Go(func() error {
			var best *domain.LPPLCandidate
			var counts tally
			for _, m := range g.M {
				for _, omega := range g.Omega {
					for _, phi := range g.Phi {
						cand, o := w.evaluate(point{offset: offset, m: m, omega: omega, phi: phi}, f.opts.MinR2)
						counts.add(o)
						if o != outcomeAdmissible {
							continue
						}
						if best == nil || cand.R2 > best.R2 {
							c := cand
							best = &c
						}
					}
				}
			}
			bests[idx] = best
			tallies[idx] = counts
			return nil
		})
	}
	_ = eg.Wait()

	var best *domain.LPPLCandidate
	var total tally
	for idx := range g.TcOffsets {
		total.merge(tallies[idx])
		if c := bests[idx]; c != nil && (best == nil || c.R2 > best.R2) {
			best = c
		}
	}
	return best, total
}

// timeAxis returns calendar days since the first timestamp, or the index
// when no timestamps are attached.
func timeAxis(s domain.PriceSeries) []float64 {
	t := make([]float64, s.Len())
	if !s.HasTimestamps() {
		for i := range t {
			t[i] = float64(i)
		}
		return t
	}
	first := s.Timestamps[0]
	for i, ts := range s.Timestamps {
		t[i] = float64(ts-first) / float64(domain.DayMs)
	}
	return t
}

func logValues(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log(v)
	}
	return out
}

// confidence maps R² in (DefaultMinR2, DefaultMinR2+0.25] onto 0..100,
// truncated. The baseline does not move with a configured MinR2.
func confidence(r2 float64) int {
	c := (r2 - DefaultMinR2) / 0.25 * 100
	c = math.Max(0, math.Min(100, c))
	return int(c)
}

func failedChecks(c domain.LPPLChecks) string {
	reason := "winner failed range checks:"
	if !c.MValid {
		reason += " m"
	}
	if !c.OmegaValid {
		reason += " omega"
	}
	if !c.TcValid {
		reason += " tc"
	}
	return reason
}
