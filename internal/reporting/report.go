// Package reporting renders analysis results as the published JSON document,
// a Markdown summary and a timeseries CSV.
package reporting

import "flr-tracker/internal/audit"

// Document is the flr-data.json payload.
type Document struct {
	Meta        Meta               `json:"meta"`
	Regime      RegimeSection      `json:"regime"`
	CSD         CSDSection         `json:"csd"`
	LPPL        LPPLSection        `json:"lppl"`
	Latest      *LatestSection     `json:"latest"`
	Timeseries  []TimeseriesRow    `json:"timeseries"`
	DateRange   *DateRange         `json:"date_range"`
	RecordCount int                `json:"record_count"`
	AuditLog    []audit.Entry      `json:"audit_log"`
	DataQuality DataQualitySection `json:"data_quality"`
}

// Meta describes how and when the document was produced.
type Meta struct {
	GeneratedAt string            `json:"generated_at"` // RFC3339, UTC
	Version     string            `json:"version"`
	RunID       string            `json:"run_id"`
	Series      []string          `json:"series"`
	Methodology map[string]string `json:"methodology"`
}

// RegimeSection is the composite score, rounded to one decimal.
type RegimeSection struct {
	Composite  float64          `json:"composite"`
	Status     string           `json:"status"`
	Signal     string           `json:"signal"`
	Components RegimeComponents `json:"components"`
	Credit     *CreditSection   `json:"credit,omitempty"`
}

// RegimeComponents are the sub-scores, rounded to one decimal.
type RegimeComponents struct {
	AR1Score       float64 `json:"ar1_score"`
	TauScore       float64 `json:"tau_score"`
	LPPLScore      float64 `json:"lppl_score"`
	LiquidityScore float64 `json:"liquidity_score"`
}

// CreditSection carries the optional credit spreads.
type CreditSection struct {
	HighYieldSpread  *float64 `json:"high_yield_spread"`
	InvestmentSpread *float64 `json:"investment_grade_spread"`
	FundingSpread    *float64 `json:"funding_spread"`
}

// CSDSection holds the current indicators, rounded to four decimals.
type CSDSection struct {
	CurrentAR1      float64 `json:"current_ar1"`
	CurrentVariance float64 `json:"current_variance"`
	KendallTau      float64 `json:"kendall_tau"`
	Status          string  `json:"status"`
}

// LPPLSection is the bubble-signature outcome.
type LPPLSection struct {
	IsBubble    bool            `json:"is_bubble"`
	Confidence  int             `json:"confidence"`
	TcDays      *float64        `json:"tc_days"`
	TcDate      *string         `json:"tc_date"`
	R2          *float64        `json:"r2"`
	Omega       *float64        `json:"omega"`
	M           *float64        `json:"m"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Diagnostics LPPLDiagnostics `json:"diagnostics"`
}

// LPPLDiagnostics counts grid points by outcome.
type LPPLDiagnostics struct {
	GridPoints  int `json:"grid_points"`
	Admissible  int `json:"admissible"`
	Domain      int `json:"rejected_domain"`
	Singular    int `json:"rejected_singular"`
	Sign        int `json:"rejected_sign"`
	Oscillation int `json:"rejected_oscillation"`
	Fit         int `json:"rejected_fit"`
	Window      int `json:"window_length"`
}

// LatestSection is the last timeline row.
type LatestSection struct {
	Date         string              `json:"date"`
	SPX          float64             `json:"spx"`
	BalanceSheet float64             `json:"balance_sheet"`
	TGA          float64             `json:"tga"`
	RRP          float64             `json:"rrp"`
	Reserves     *float64            `json:"reserves"`
	NetLiquidity float64             `json:"net_liquidity"`
	Aux          map[string]*float64 `json:"aux,omitempty"`
}

// TimeseriesRow is one chart point. Indicator values are null where undefined.
type TimeseriesRow struct {
	Date         string              `json:"date"`
	SPX          float64             `json:"spx"`
	BalanceSheet float64             `json:"balance_sheet"`
	TGA          float64             `json:"tga"`
	RRP          float64             `json:"rrp"`
	Reserves     *float64            `json:"reserves"`
	NetLiquidity float64             `json:"net_liquidity"`
	Aux          map[string]*float64 `json:"aux,omitempty"`
	Trend        *float64            `json:"trend"`
	AR1          *float64            `json:"ar1"`
	Variance     *float64            `json:"variance"`
}

// DateRange is the first and last timeline date.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DataQualitySection contains data sufficiency checks.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow `json:"sufficiency_checks"`
	Warnings          []string              `json:"warnings"`
	AllChecksPassed   bool                  `json:"all_checks_passed"`
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}
