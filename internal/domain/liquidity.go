package domain

// LiquiditySnapshot is the externally computed macro input of the regime scorer.
// All figures share one unit (billions USD after normalization).
type LiquiditySnapshot struct {
	NetLiquidity float64       `json:"net_liquidity"`
	Credit       *CreditStress `json:"credit,omitempty"`
}

// CreditStress carries optional credit-market context. It is reported alongside
// the regime but does not enter the composite score.
type CreditStress struct {
	HighYieldSpread  *float64 `json:"high_yield_spread,omitempty"`
	InvestmentSpread *float64 `json:"investment_grade_spread,omitempty"`
	FundingSpread    *float64 `json:"funding_spread,omitempty"`
}

// TimelineRow is one date of the unified timeline: the price plus liquidity
// components forward filled onto that date. Component values are in billions.
type TimelineRow struct {
	TimestampMs  int64
	Price        float64
	BalanceSheet float64
	TGA          float64
	RRP          float64
	Reserves     *float64 // nil until the first reserves observation
	NetLiquidity float64
	Aux          map[string]*float64 // auxiliary series (e.g. ssn), nil when not yet observed
}
