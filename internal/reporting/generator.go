package reporting

import (
	"encoding/json"
	"sort"
	"time"

	"flr-tracker/internal/audit"
	"flr-tracker/internal/csd"
	"flr-tracker/internal/domain"
	"flr-tracker/internal/engine"
)

// DefaultVersion is the document schema version.
const DefaultVersion = "3.0.0"

var methodology = map[string]string{
	"csd":    "Dakos et al. (2012) - Gaussian kernel detrend + rolling AR(1)",
	"lppl":   "Sornette (2003) - nonlinear grid search with linear least squares",
	"regime": "weighted composite of AR(1), Kendall tau, LPPL confidence and net liquidity",
}

// Input is everything a document is built from.
type Input struct {
	RunID     string
	SeriesIDs []string
	Rows      []domain.TimelineRow
	Result    *engine.Result
	Audit     []audit.Entry
	Quality   DataQualitySection
}

// Generator builds output documents.
type Generator struct {
	version string
	now     func() time.Time
}

// NewGenerator creates a generator stamping the given schema version.
func NewGenerator(version string) *Generator {
	if version == "" {
		version = DefaultVersion
	}
	return &Generator{
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles the document. Rows and the engine result must describe
// the same price series.
func (g *Generator) Generate(in Input) *Document {
	series := append([]string(nil), in.SeriesIDs...)
	sort.Strings(series)

	doc := &Document{
		Meta: Meta{
			GeneratedAt: g.now().UTC().Format(time.RFC3339),
			Version:     g.version,
			RunID:       in.RunID,
			Series:      series,
			Methodology: methodology,
		},
		Timeseries:  make([]TimeseriesRow, 0, len(in.Rows)),
		AuditLog:    in.Audit,
		DataQuality: in.Quality,
	}
	if doc.AuditLog == nil {
		doc.AuditLog = []audit.Entry{}
	}
	if doc.DataQuality.SufficiencyChecks == nil {
		doc.DataQuality.SufficiencyChecks = []SufficiencyCheckRow{}
	}
	if doc.DataQuality.Warnings == nil {
		doc.DataQuality.Warnings = []string{}
	}

	if in.Result != nil {
		doc.Regime = regimeSection(in.Result.Regime)
		doc.CSD = csdSection(in.Result.CSD.Report)
		doc.LPPL = lpplSection(in.Result.LPPL)
	}

	for i, row := range in.Rows {
		ts := TimeseriesRow{
			Date:         domain.DateString(row.TimestampMs),
			SPX:          round(row.Price, placesPrice),
			BalanceSheet: round(row.BalanceSheet, placesLiquidity),
			TGA:          round(row.TGA, placesLiquidity),
			RRP:          round(row.RRP, placesLiquidity),
			Reserves:     roundPtr(row.Reserves, placesLiquidity),
			NetLiquidity: round(row.NetLiquidity, placesLiquidity),
			Aux:          roundAux(row.Aux),
		}
		if r := in.Result; r != nil {
			if i < len(r.CSD.Trend) {
				ts.Trend = optional(r.CSD.Trend[i], true, placesPrice)
			}
			ts.AR1 = definedAt(r.CSD.AR1, i)
			ts.Variance = definedAt(r.CSD.Variance, i)
		}
		doc.Timeseries = append(doc.Timeseries, ts)
	}
	doc.RecordCount = len(doc.Timeseries)

	if n := len(in.Rows); n > 0 {
		last := doc.Timeseries[n-1]
		doc.Latest = &LatestSection{
			Date:         last.Date,
			SPX:          last.SPX,
			BalanceSheet: last.BalanceSheet,
			TGA:          last.TGA,
			RRP:          last.RRP,
			Reserves:     last.Reserves,
			NetLiquidity: last.NetLiquidity,
			Aux:          last.Aux,
		}
		doc.DateRange = &DateRange{
			Start: doc.Timeseries[0].Date,
			End:   last.Date,
		}
	}

	return doc
}

// RenderJSON encodes the document with two-space indentation.
func RenderJSON(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func regimeSection(r domain.RegimeReport) RegimeSection {
	s := RegimeSection{
		Composite: round(r.Composite, placesScore),
		Status:    r.Status,
		Signal:    r.Signal,
		Components: RegimeComponents{
			AR1Score:       round(r.Components.AR1Score, placesScore),
			TauScore:       round(r.Components.TauScore, placesScore),
			LPPLScore:      round(r.Components.LPPLScore, placesScore),
			LiquidityScore: round(r.Components.LiquidityScore, placesScore),
		},
	}
	if c := r.Credit; c != nil {
		s.Credit = &CreditSection{
			HighYieldSpread:  roundPtr(c.HighYieldSpread, placesPrice),
			InvestmentSpread: roundPtr(c.InvestmentSpread, placesPrice),
			FundingSpread:    roundPtr(c.FundingSpread, placesPrice),
		}
	}
	return s
}

func csdSection(r domain.CSDReport) CSDSection {
	return CSDSection{
		CurrentAR1:      round(r.CurrentAR1, placesIndicator),
		CurrentVariance: round(r.CurrentVariance, placesIndicator),
		KendallTau:      round(r.KendallTau, placesIndicator),
		Status:          r.Status,
	}
}

func lpplSection(r domain.LPPLReport) LPPLSection {
	s := LPPLSection{
		IsBubble:   r.IsBubble,
		Confidence: r.Confidence,
		TcDays:     roundPtr(r.TcDays, placesScore),
		Status:     r.Status,
		Reason:     r.Reason,
		Diagnostics: LPPLDiagnostics{
			GridPoints:  r.Diagnostics.GridPoints,
			Admissible:  r.Diagnostics.AdmissiblePoint,
			Domain:      r.Diagnostics.RejectedDomain,
			Singular:    r.Diagnostics.RejectedSolve,
			Sign:        r.Diagnostics.RejectedSign,
			Oscillation: r.Diagnostics.RejectedOscill,
			Fit:         r.Diagnostics.RejectedFit,
			Window:      r.Diagnostics.WindowLength,
		},
	}
	if r.TcDays != nil && r.TcDateMs != nil {
		date := domain.DateString(*r.TcDateMs)
		s.TcDate = &date
	}
	if b := r.Best; b != nil {
		s.R2 = roundPtr(&b.R2, placesIndicator)
		s.Omega = roundPtr(&b.Omega, placesIndicator)
		s.M = roundPtr(&b.M, placesIndicator)
	}
	return s
}

func definedAt(r csd.Rolling, i int) *float64 {
	v, ok := r.At(i)
	return optional(v, ok, placesIndicator)
}

func roundAux(aux map[string]*float64) map[string]*float64 {
	if len(aux) == 0 {
		return nil
	}
	out := make(map[string]*float64, len(aux))
	for k, v := range aux {
		out[k] = roundPtr(v, placesLiquidity)
	}
	return out
}

// auxColumns returns the sorted union of auxiliary column names.
func auxColumns(rows []TimeseriesRow) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Aux {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
