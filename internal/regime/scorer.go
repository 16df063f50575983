// Package regime combines CSD, LPPL and liquidity indicators into a composite
// fragility score.
package regime

import (
	"math"

	"flr-tracker/internal/domain"
)

// Component weights of the composite score.
const (
	WeightAR1       = 0.35
	WeightTau       = 0.20
	WeightLPPL      = 0.25
	WeightLiquidity = 0.20
)

// LiquidityBaseline is the net liquidity level (billions) at which the
// liquidity score is zero; every 20bn below it adds one point.
const LiquidityBaseline = 6500.0

// Score computes the regime report. A nil liquidity snapshot scores zero
// on the liquidity component.
func Score(csd domain.CSDReport, lppl domain.LPPLReport, liquidity *domain.LiquiditySnapshot) domain.RegimeReport {
	c := domain.RegimeComponents{
		AR1Score: clamp((csd.CurrentAR1 - 0.3) / 0.5 * 100),
		TauScore: clamp((csd.KendallTau + 0.5) / 1.0 * 100),
	}
	if lppl.IsBubble {
		c.LPPLScore = float64(lppl.Confidence)
	}

	var credit *domain.CreditStress
	if liquidity != nil {
		c.LiquidityScore = clamp((LiquidityBaseline - liquidity.NetLiquidity) / 20)
		credit = liquidity.Credit
	}

	composite := WeightAR1*c.AR1Score +
		WeightTau*c.TauScore +
		WeightLPPL*c.LPPLScore +
		WeightLiquidity*c.LiquidityScore

	status, signal := Classify(composite)
	return domain.RegimeReport{
		Composite:  composite,
		Status:     status,
		Signal:     signal,
		Components: c,
		Credit:     credit,
	}
}

// Classify maps a composite score to its status and signal.
func Classify(composite float64) (status, signal string) {
	switch {
	case composite > 70:
		return domain.RegimeCritical, domain.SignalStrongSell
	case composite > 55:
		return domain.RegimeElevated, domain.SignalReduceRisk
	case composite > 40:
		return domain.RegimeCaution, domain.SignalHold
	case composite > 25:
		return domain.RegimeNormal, domain.SignalAccumulate
	default:
		return domain.RegimeFavorable, domain.SignalStrongBuy
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
