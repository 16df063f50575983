// Package verification replays stored analysis runs against the current
// observation store and reports every field that no longer matches.
package verification

import (
	"context"
	"math"

	"flr-tracker/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// VerificationResult contains the result of verifying a single run.
type VerificationResult struct {
	RunID          string            // verified run ID
	ReplayedRunID  string            // run ID computed from the current data
	Match          bool              // true if all fields match
	Divergences    []FieldDivergence // list of divergent fields
	StoredRegime   string            // regime status from the stored run
	ReplayedRegime string            // regime status from the replay
}

// Verifier replays stored runs.
type Verifier interface {
	// VerifyRun loads the stored run, recomputes the analysis from the
	// observations in its date range and compares the summary fields.
	VerifyRun(ctx context.Context, runID string) (*VerificationResult, error)

	// VerifyLatest verifies the most recent run of a series.
	VerifyLatest(ctx context.Context, seriesID string) (*VerificationResult, error)
}

// CompareRunRecords compares two run records and returns divergences.
// GeneratedAt and Document are not compared.
// Uses FloatTolerance for float64 comparisons.
func CompareRunRecords(stored, replayed *domain.RunRecord) []FieldDivergence {
	var divergences []FieldDivergence
	add := func(field string, expected, actual any) {
		divergences = append(divergences, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}

	// Identity
	if stored.RunID != replayed.RunID {
		add("RunID", stored.RunID, replayed.RunID)
	}
	if stored.SeriesID != replayed.SeriesID {
		add("SeriesID", stored.SeriesID, replayed.SeriesID)
	}
	if stored.FirstTs != replayed.FirstTs {
		add("FirstTs", stored.FirstTs, replayed.FirstTs)
	}
	if stored.LastTs != replayed.LastTs {
		add("LastTs", stored.LastTs, replayed.LastTs)
	}
	if stored.Points != replayed.Points {
		add("Points", stored.Points, replayed.Points)
	}

	// Regime
	if !floatEquals(stored.Composite, replayed.Composite) {
		add("Composite", stored.Composite, replayed.Composite)
	}
	if stored.RegimeStatus != replayed.RegimeStatus {
		add("RegimeStatus", stored.RegimeStatus, replayed.RegimeStatus)
	}
	if stored.Signal != replayed.Signal {
		add("Signal", stored.Signal, replayed.Signal)
	}

	// CSD
	if stored.CSDStatus != replayed.CSDStatus {
		add("CSDStatus", stored.CSDStatus, replayed.CSDStatus)
	}
	if !floatEquals(stored.CurrentAR1, replayed.CurrentAR1) {
		add("CurrentAR1", stored.CurrentAR1, replayed.CurrentAR1)
	}
	if !floatEquals(stored.KendallTau, replayed.KendallTau) {
		add("KendallTau", stored.KendallTau, replayed.KendallTau)
	}

	// LPPL
	if stored.IsBubble != replayed.IsBubble {
		add("IsBubble", stored.IsBubble, replayed.IsBubble)
	}
	if stored.LPPLConfidence != replayed.LPPLConfidence {
		add("LPPLConfidence", stored.LPPLConfidence, replayed.LPPLConfidence)
	}

	return divergences
}

// floatEquals compares two float64 values within FloatTolerance.
// NaN equals NaN so that an undefined indicator replays as undefined.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= FloatTolerance
}
