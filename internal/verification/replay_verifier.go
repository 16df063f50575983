package verification

import (
	"context"
	"errors"
	"time"

	"flr-tracker/internal/domain"
	"flr-tracker/internal/pipeline"
	"flr-tracker/internal/storage"
)

// ErrRunNotFound is returned when the run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// Analyzer recomputes an analysis from stored observations whose price dates
// lie in [first, last]. *pipeline.Pipeline implements it.
type Analyzer interface {
	AnalyzeRange(ctx context.Context, first, last int64) (*pipeline.Analysis, error)
}

// ReplayVerifier implements Verifier.
type ReplayVerifier struct {
	runs     storage.RunStore
	analyzer Analyzer
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(runs storage.RunStore, analyzer Analyzer) *ReplayVerifier {
	return &ReplayVerifier{runs: runs, analyzer: analyzer}
}

// VerifyRun verifies a single stored run.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	stored, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifyLatest verifies the most recent stored run of a series.
func (v *ReplayVerifier) VerifyLatest(ctx context.Context, seriesID string) (*VerificationResult, error) {
	stored, err := v.runs.GetLatest(ctx, seriesID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

func (v *ReplayVerifier) verify(ctx context.Context, stored *domain.RunRecord) (*VerificationResult, error) {
	// Replay over the stored run's own price dates; later observations
	// belong to later runs.
	a, err := v.analyzer.AnalyzeRange(ctx, stored.FirstTs, stored.LastTs)
	if err != nil {
		return nil, err
	}
	replayed := pipeline.NewRunRecord(a, time.UnixMilli(stored.GeneratedAt), nil)

	divergences := CompareRunRecords(stored, replayed)
	return &VerificationResult{
		RunID:          stored.RunID,
		ReplayedRunID:  replayed.RunID,
		Match:          len(divergences) == 0,
		Divergences:    divergences,
		StoredRegime:   stored.RegimeStatus,
		ReplayedRegime: replayed.RegimeStatus,
	}, nil
}
