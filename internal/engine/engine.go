// Package engine runs the full analysis over a validated price series:
// CSD indicators and the LPPL search in parallel, then the regime score.
// It performs no I/O; diagnostics go to the supplied audit sink.
package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"flr-tracker/internal/audit"
	"flr-tracker/internal/csd"
	"flr-tracker/internal/domain"
	"flr-tracker/internal/lppl"
	"flr-tracker/internal/regime"
)

// Audit operation names.
const (
	OpCSDAnalysis  = "CSD_ANALYSIS"
	OpLPPLAnalysis = "LPPL_ANALYSIS"
)

// Config holds all analysis parameters.
type Config struct {
	CSD  csd.Params
	LPPL lppl.Options
}

// DefaultConfig returns the standard analysis parameters.
func DefaultConfig() Config {
	return Config{
		CSD:  csd.DefaultParams(),
		LPPL: lppl.DefaultOptions(),
	}
}

// Result is the output of one engine run.
type Result struct {
	CSD    csd.Result
	LPPL   domain.LPPLReport
	Regime domain.RegimeReport
}

// Engine runs analyses with a fixed configuration.
type Engine struct {
	cfg    Config
	fitter *lppl.Fitter
	sink   audit.Sink
}

// New creates an engine. A nil sink discards diagnostics.
func New(cfg Config, sink audit.Sink) (*Engine, error) {
	if err := cfg.CSD.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = audit.Discard
	}
	return &Engine{
		cfg:    cfg,
		fitter: lppl.NewFitter(cfg.LPPL),
		sink:   sink,
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.LPPL = e.fitter.Options()
	return cfg
}

// Run validates series and computes the CSD, LPPL and regime reports.
// Liquidity may be nil.
func (e *Engine) Run(series domain.PriceSeries, liquidity *domain.LiquiditySnapshot) (*Result, error) {
	if err := Validate(series); err != nil {
		return nil, err
	}

	var (
		csdResult csd.Result
		lpplRep   domain.LPPLReport
	)

	var g errgroup.Group
	g.Go(func() error {
		csdResult = csd.Analyze(series.Values, e.cfg.CSD)
		return nil
	})
	g.Go(func() error {
		lpplRep = e.fitter.Fit(series)
		return nil
	})
	_ = g.Wait()

	e.recordCSD(series, csdResult)
	e.recordLPPL(lpplRep)

	return &Result{
		CSD:    csdResult,
		LPPL:   lpplRep,
		Regime: regime.Score(csdResult.Report, lpplRep, liquidity),
	}, nil
}

func (e *Engine) recordCSD(series domain.PriceSeries, r csd.Result) {
	e.sink.Record(OpCSDAnalysis, "Gaussian kernel detrending, rolling lag-1 autocorrelation", map[string]any{
		"series_id":        series.ID,
		"points":           series.Len(),
		"bandwidth":        e.cfg.CSD.Bandwidth,
		"window":           e.cfg.CSD.Window,
		"tau_lookback":     e.cfg.CSD.TauLookback,
		"ar1_points":       r.AR1.Count(),
		"current_ar1":      r.Report.CurrentAR1,
		"current_variance": r.Report.CurrentVariance,
		"kendall_tau":      r.Report.KendallTau,
		"status":           r.Report.Status,
	})
}

func (e *Engine) recordLPPL(r domain.LPPLReport) {
	opts := e.fitter.Options()
	details := map[string]any{
		"method":      "grid search with least squares",
		"lookback":    opts.Lookback,
		"status":      r.Status,
		"is_bubble":   r.IsBubble,
		"confidence":  r.Confidence,
		"diagnostics": r.Diagnostics,
	}
	if r.Reason != "" {
		details["reason"] = r.Reason
	}
	if r.Best != nil {
		details["tc_offset"] = r.Best.TcOffset
		details["m"] = r.Best.M
		details["omega"] = r.Best.Omega
		details["r2"] = r.Best.R2
		details["m_valid"] = r.Checks.MValid
		details["omega_valid"] = r.Checks.OmegaValid
		details["tc_valid"] = r.Checks.TcValid
	}
	e.sink.Record(OpLPPLAnalysis, "log-periodic power law fitter", details)
}

// Fingerprint returns a canonical string of every parameter that affects results.
func (c Config) Fingerprint() string {
	g := c.LPPL.Grid
	return fmt.Sprintf("bw=%d|w=%d|tau=%d|lb=%d|min=%d|r2=%g|tc=%v|m=%v|omega=%v|phi=%v",
		c.CSD.Bandwidth, c.CSD.Window, c.CSD.TauLookback,
		c.LPPL.Lookback, c.LPPL.MinPoints, c.LPPL.MinR2,
		g.TcOffsets, g.M, g.Omega, g.Phi,
	)
}
