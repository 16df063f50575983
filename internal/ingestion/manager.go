// Package ingestion loads raw series observations from external files into storage.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flr-tracker/internal/storage"
)

// Manager orchestrates ingestion from a source to storage.
// It enforces deterministic ordering and uses the storage layer for duplicate rejection.
type Manager struct {
	source ObservationSource
	store  storage.ObservationStore
}

// NewManager creates a new ingestion manager.
func NewManager(source ObservationSource, store storage.ObservationStore) *Manager {
	return &Manager{source: source, store: store}
}

// Ingest fetches the observations of seriesID and stores them.
// Returns count of ingested observations.
// Duplicates are rejected by the storage layer (ErrDuplicateKey).
func (m *Manager) Ingest(ctx context.Context, seriesID string) (int, error) {
	obs, err := m.source.Fetch(ctx, seriesID)
	if err != nil {
		return 0, err
	}
	if len(obs) == 0 {
		return 0, nil
	}

	SortObservations(obs)
	if err := ValidateObservationOrdering(obs); err != nil {
		return 0, fmt.Errorf("series %s: %w", seriesID, err)
	}

	if err := m.store.InsertBulk(ctx, obs); err != nil {
		return 0, fmt.Errorf("store %s: %w", seriesID, err)
	}
	return len(obs), nil
}

// IngestResult summarizes an IngestAll call.
type IngestResult struct {
	Counts   map[string]int // observations stored per series
	Missing  []string       // series the source has no data for (os.ErrNotExist)
	Existing []string       // series already stored (ErrDuplicateKey)
}

// IngestAll ingests every series in order. Missing and already stored series
// are recorded and skipped; any other error stops the run.
func (m *Manager) IngestAll(ctx context.Context, seriesIDs []string) (*IngestResult, error) {
	res := &IngestResult{Counts: make(map[string]int, len(seriesIDs))}
	for _, id := range seriesIDs {
		n, err := m.Ingest(ctx, id)
		switch {
		case errors.Is(err, os.ErrNotExist):
			res.Missing = append(res.Missing, id)
		case errors.Is(err, storage.ErrDuplicateKey):
			res.Existing = append(res.Existing, id)
		case err != nil:
			return res, err
		default:
			res.Counts[id] = n
		}
	}
	return res, nil
}
