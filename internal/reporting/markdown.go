package reporting

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the document summary as Markdown.
func RenderMarkdown(d *Document) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Financial Liquidity Regime Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s | Version: %s\n\n", d.Meta.GeneratedAt, d.Meta.Version))
	if d.Meta.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", d.Meta.RunID))
	}
	if d.DateRange != nil {
		sb.WriteString(fmt.Sprintf("Data: %s to %s (%d records)\n\n", d.DateRange.Start, d.DateRange.End, d.RecordCount))
	}

	// Regime
	sb.WriteString("## Regime\n\n")
	sb.WriteString(fmt.Sprintf("**%s** | Signal: **%s** | Composite: %s\n\n",
		d.Regime.Status, d.Regime.Signal, formatFixed(d.Regime.Composite, placesScore)))
	sb.WriteString("| Component | Score | Weight |\n")
	sb.WriteString("|-----------|-------|--------|\n")
	sb.WriteString(fmt.Sprintf("| AR(1) | %s | 35%% |\n", formatFixed(d.Regime.Components.AR1Score, placesScore)))
	sb.WriteString(fmt.Sprintf("| Kendall tau | %s | 20%% |\n", formatFixed(d.Regime.Components.TauScore, placesScore)))
	sb.WriteString(fmt.Sprintf("| LPPL | %s | 25%% |\n", formatFixed(d.Regime.Components.LPPLScore, placesScore)))
	sb.WriteString(fmt.Sprintf("| Net liquidity | %s | 20%% |\n", formatFixed(d.Regime.Components.LiquidityScore, placesScore)))
	sb.WriteString("\n")

	if c := d.Regime.Credit; c != nil {
		sb.WriteString("### Credit Spreads\n\n")
		sb.WriteString("| Spread | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| High yield | %s |\n", orNA(c.HighYieldSpread)))
		sb.WriteString(fmt.Sprintf("| Investment grade | %s |\n", orNA(c.InvestmentSpread)))
		sb.WriteString(fmt.Sprintf("| Funding | %s |\n", orNA(c.FundingSpread)))
		sb.WriteString("\n")
	}

	// Critical Slowing Down
	sb.WriteString("## Critical Slowing Down\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Current AR(1) | %s |\n", formatFixed(d.CSD.CurrentAR1, placesIndicator)))
	sb.WriteString(fmt.Sprintf("| Current variance | %s |\n", formatFixed(d.CSD.CurrentVariance, placesIndicator)))
	sb.WriteString(fmt.Sprintf("| Kendall tau | %s |\n", formatFixed(d.CSD.KendallTau, placesIndicator)))
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", d.CSD.Status))
	sb.WriteString("\n")

	// LPPL
	sb.WriteString("## LPPL Bubble Signature\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", d.LPPL.Status))
	sb.WriteString(fmt.Sprintf("| Bubble | %t |\n", d.LPPL.IsBubble))
	sb.WriteString(fmt.Sprintf("| Confidence | %d%% |\n", d.LPPL.Confidence))
	sb.WriteString(fmt.Sprintf("| R² | %s |\n", orNA(d.LPPL.R2)))
	sb.WriteString(fmt.Sprintf("| m | %s |\n", orNA(d.LPPL.M)))
	sb.WriteString(fmt.Sprintf("| omega | %s |\n", orNA(d.LPPL.Omega)))
	sb.WriteString(fmt.Sprintf("| tc (days) | %s |\n", orNA(d.LPPL.TcDays)))
	tcDate := "n/a"
	if d.LPPL.TcDate != nil {
		tcDate = *d.LPPL.TcDate
	}
	sb.WriteString(fmt.Sprintf("| tc (date) | %s |\n", tcDate))
	if d.LPPL.Reason != "" {
		sb.WriteString(fmt.Sprintf("| Reason | %s |\n", d.LPPL.Reason))
	}
	sb.WriteString("\n")

	// Latest
	sb.WriteString("## Latest Observation\n\n")
	if l := d.Latest; l != nil {
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Date | %s |\n", l.Date))
		sb.WriteString(fmt.Sprintf("| S&P 500 | %s |\n", formatFixed(l.SPX, placesPrice)))
		sb.WriteString(fmt.Sprintf("| Balance sheet ($B) | %s |\n", formatFixed(l.BalanceSheet, placesLiquidity)))
		sb.WriteString(fmt.Sprintf("| TGA ($B) | %s |\n", formatFixed(l.TGA, placesLiquidity)))
		sb.WriteString(fmt.Sprintf("| RRP ($B) | %s |\n", formatFixed(l.RRP, placesLiquidity)))
		sb.WriteString(fmt.Sprintf("| Reserves ($B) | %s |\n", orNA(l.Reserves)))
		sb.WriteString(fmt.Sprintf("| Net liquidity ($B) | %s |\n", formatFixed(l.NetLiquidity, placesLiquidity)))
		for _, k := range sortedKeys(l.Aux) {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", k, orNA(l.Aux[k])))
		}
	} else {
		sb.WriteString("No observations available.\n")
	}
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if len(d.DataQuality.SufficiencyChecks) > 0 {
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range d.DataQuality.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if d.DataQuality.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Affected indicators fall back to neutral values.\n\n")
		}
	} else {
		sb.WriteString("No data quality checks performed.\n\n")
	}
	for _, w := range d.DataQuality.Warnings {
		sb.WriteString(fmt.Sprintf("- %s\n", w))
	}
	if len(d.DataQuality.Warnings) > 0 {
		sb.WriteString("\n")
	}

	// Audit Log
	sb.WriteString("## Audit Log\n\n")
	if len(d.AuditLog) > 0 {
		sb.WriteString("| Time | Operation | Source |\n")
		sb.WriteString("|------|-----------|--------|\n")
		for _, e := range d.AuditLog {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				e.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), e.Operation, e.Source))
		}
	} else {
		sb.WriteString("No audit entries.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func orNA(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatNumber(v)
}
