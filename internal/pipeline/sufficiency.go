package pipeline

import (
	"fmt"
	"sort"

	"flr-tracker/internal/domain"
	"flr-tracker/internal/engine"
	"flr-tracker/internal/reporting"
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks. Failures never abort a run: the
// affected indicators degrade to their neutral values.
type SufficiencyResult struct {
	Checks   []SufficiencyCheck
	AllPass  bool
	Warnings []string
}

// SufficiencyChecker validates that a timeline is long enough for every indicator.
type SufficiencyChecker struct {
	cfg engine.Config
}

// NewSufficiencyChecker creates a checker for the given analysis parameters.
func NewSufficiencyChecker(cfg engine.Config) *SufficiencyChecker {
	return &SufficiencyChecker{cfg: cfg}
}

// Check evaluates the timeline and liquidity snapshot.
func (c *SufficiencyChecker) Check(rows []domain.TimelineRow, snapshot *domain.LiquiditySnapshot) *SufficiencyResult {
	n := len(rows)
	w := c.cfg.CSD.Window
	l := c.cfg.CSD.TauLookback

	result := &SufficiencyResult{
		Checks:   make([]SufficiencyCheck, 0, 5),
		AllPass:  true,
		Warnings: []string{},
	}
	add := func(check SufficiencyCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: one AR(1) value needs window+1 points
	add(countCheck("AR(1) window", n, w+1))

	// Check 2: the rank trend needs lookback AR(1) values
	add(countCheck("Kendall tau lookback", n, w+1+l))

	// Check 3: LPPL minimum fit length
	add(countCheck("LPPL minimum points", n, c.cfg.LPPL.MinPoints))

	// Check 4: full LPPL lookback window
	add(countCheck("LPPL lookback window", n, c.cfg.LPPL.Lookback))

	// Check 5: net liquidity present
	liq := SufficiencyCheck{
		Name:      "Net liquidity available",
		Threshold: "present",
		Actual:    "missing",
	}
	if snapshot != nil {
		liq.Actual = "present"
		liq.Pass = true
	}
	add(liq)

	result.Warnings = append(result.Warnings, latestGaps(rows)...)
	if snapshot != nil && snapshot.Credit == nil {
		result.Warnings = append(result.Warnings, "no credit spread observations")
	}

	return result
}

func countCheck(name string, actual, threshold int) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      name,
		Threshold: fmt.Sprintf(">= %d points", threshold),
		Actual:    fmt.Sprintf("%d", actual),
		Pass:      actual >= threshold,
	}
}

// latestGaps lists optional columns that are still unobserved on the last row.
func latestGaps(rows []domain.TimelineRow) []string {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]

	var gaps []string
	if last.Reserves == nil {
		gaps = append(gaps, "reserves not observed")
	}
	names := make([]string, 0, len(last.Aux))
	for name, v := range last.Aux {
		if v == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		gaps = append(gaps, fmt.Sprintf("%s not observed", name))
	}
	return gaps
}

// convertToDataQuality maps a sufficiency result onto the report section.
func convertToDataQuality(result *SufficiencyResult) reporting.DataQualitySection {
	dq := reporting.DataQualitySection{
		SufficiencyChecks: make([]reporting.SufficiencyCheckRow, len(result.Checks)),
		Warnings:          result.Warnings,
		AllChecksPassed:   result.AllPass,
	}
	for i, c := range result.Checks {
		dq.SufficiencyChecks[i] = reporting.SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		}
	}
	return dq
}
