package csd

import (
	"errors"
	"fmt"

	"flr-tracker/internal/domain"
)

// Default analysis parameters.
const (
	DefaultBandwidth   = 50
	DefaultWindow      = 250
	DefaultTauLookback = 100
)

// Params configures the CSD pipeline.
type Params struct {
	Bandwidth   int // kernel bandwidth in timesteps
	Window      int // rolling window length
	TauLookback int // number of recent AR(1) values for Kendall's tau
	Workers     int // detrender parallelism, 0 means GOMAXPROCS
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		Bandwidth:   DefaultBandwidth,
		Window:      DefaultWindow,
		TauLookback: DefaultTauLookback,
	}
}

// ErrInvalidParams is returned for non-positive parameters.
var ErrInvalidParams = errors.New("invalid csd params")

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.Bandwidth <= 0 {
		return fmt.Errorf("%w: bandwidth must be positive, got %d", ErrInvalidParams, p.Bandwidth)
	}
	if p.Window < 2 {
		return fmt.Errorf("%w: window must be at least 2, got %d", ErrInvalidParams, p.Window)
	}
	if p.TauLookback < 2 {
		return fmt.Errorf("%w: tau lookback must be at least 2, got %d", ErrInvalidParams, p.TauLookback)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidParams, p.Workers)
	}
	return nil
}

// Result holds the CSD report and the intermediate series it was derived from.
type Result struct {
	Report    domain.CSDReport
	Trend     []float64
	Residuals []float64
	AR1       Rolling
	Variance  Rolling
}

// Analyze runs detrend, rolling estimation and the rank trend over values.
// It is a pure function of its inputs.
func Analyze(values []float64, p Params) Result {
	trend, residuals := Detrend(values, p.Bandwidth, p.Workers)
	ar1 := RollingAR1(residuals, p.Window)
	variance := RollingVariance(residuals, p.Window)

	currentAR1, _ := ar1.Latest()
	currentVar, _ := variance.Latest()
	tau := KendallTau(ar1.DefinedValues(), p.TauLookback)

	return Result{
		Report: domain.CSDReport{
			CurrentAR1:      currentAR1,
			CurrentVariance: currentVar,
			KendallTau:      tau,
			Status:          Status(currentAR1),
		},
		Trend:     trend,
		Residuals: residuals,
		AR1:       ar1,
		Variance:  variance,
	}
}

// Status classifies an AR(1) value.
func Status(ar1 float64) string {
	switch {
	case ar1 > 0.8:
		return domain.CSDStatusCritical
	case ar1 > 0.7:
		return domain.CSDStatusElevated
	case ar1 > 0.6:
		return domain.CSDStatusRising
	default:
		return domain.CSDStatusNormal
	}
}
