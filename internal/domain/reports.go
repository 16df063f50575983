package domain

// CSD status labels, applied to the latest defined AR(1) value.
const (
	CSDStatusCritical = "CRITICAL"
	CSDStatusElevated = "ELEVATED"
	CSDStatusRising   = "RISING"
	CSDStatusNormal   = "NORMAL"
)

// CSDReport summarises Critical Slowing Down indicators.
type CSDReport struct {
	CurrentAR1      float64 `json:"current_ar1"`      // latest defined lag-1 autocorrelation, 0 if none
	CurrentVariance float64 `json:"current_variance"` // latest defined rolling variance, 0 if none
	KendallTau      float64 `json:"kendall_tau"`      // trend of AR(1) over the lookback
	Status          string  `json:"status"`
}

// LPPL report status values.
const (
	LPPLStatusComputed         = "COMPUTED"
	LPPLStatusInsufficientData = "INSUFFICIENT_DATA"
)

// LPPLCandidate is the fitted parameter set of one grid point.
type LPPLCandidate struct {
	TcOffset float64 `json:"tc_offset"` // critical time beyond the last observation (days or steps)
	M        float64 `json:"m"`
	Omega    float64 `json:"omega"`
	Phi      float64 `json:"phi"`
	A        float64 `json:"a"`
	B        float64 `json:"b"`
	C        float64 `json:"c"`
	R2       float64 `json:"r2"`
}

// LPPLChecks records the final Sornette range checks of the winning candidate.
type LPPLChecks struct {
	MValid     bool `json:"m_valid"`
	OmegaValid bool `json:"omega_valid"`
	TcValid    bool `json:"tc_valid"`
}

// LPPLDiagnostics counts grid points by outcome.
type LPPLDiagnostics struct {
	GridPoints      int `json:"grid_points"`
	RejectedDomain  int `json:"rejected_domain"`   // dt <= 0 somewhere in the window
	RejectedSolve   int `json:"rejected_singular"` // singular or ill-conditioned normal equations
	RejectedSign    int `json:"rejected_sign"`     // B >= 0
	RejectedOscill  int `json:"rejected_oscillation"`
	RejectedFit     int `json:"rejected_fit"` // R² <= acceptance threshold
	AdmissiblePoint int `json:"admissible"`
	WindowLength    int `json:"window_length"`
}

// LPPLReport is the outcome of one bubble-signature search.
type LPPLReport struct {
	IsBubble    bool            `json:"is_bubble"`
	Confidence  int             `json:"confidence"`
	TcDays      *float64        `json:"tc_days"` // distance from the last observation, nil unless valid
	TcDateMs    *int64          `json:"tc_date_ms,omitempty"`
	Best        *LPPLCandidate  `json:"best,omitempty"`
	Checks      LPPLChecks      `json:"checks"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Diagnostics LPPLDiagnostics `json:"diagnostics"`
}

// Regime status and signal labels.
const (
	RegimeCritical  = "CRITICAL"
	RegimeElevated  = "ELEVATED"
	RegimeCaution   = "CAUTION"
	RegimeNormal    = "NORMAL"
	RegimeFavorable = "FAVORABLE"

	SignalStrongSell = "STRONG SELL"
	SignalReduceRisk = "REDUCE RISK"
	SignalHold       = "HOLD"
	SignalAccumulate = "ACCUMULATE"
	SignalStrongBuy  = "STRONG BUY"
)

// RegimeComponents are the per-indicator sub-scores, each in [0, 100].
type RegimeComponents struct {
	AR1Score       float64 `json:"ar1_score"`
	TauScore       float64 `json:"tau_score"`
	LPPLScore      float64 `json:"lppl_score"`
	LiquidityScore float64 `json:"liquidity_score"`
}

// RegimeReport is the composite fragility assessment.
type RegimeReport struct {
	Composite  float64          `json:"composite"`
	Status     string           `json:"status"`
	Signal     string           `json:"signal"`
	Components RegimeComponents `json:"components"`
	Credit     *CreditStress    `json:"credit,omitempty"`
}
