package storage

import (
	"context"

	"flr-tracker/internal/domain"
)

// ObservationStore provides access to raw series observations.
type ObservationStore interface {
	// InsertBulk adds multiple observations atomically.
	// Fails the entire batch with ErrDuplicateKey if any (series_id, timestamp_ms) exists.
	InsertBulk(ctx context.Context, obs []*domain.Observation) error

	// GetBySeries retrieves all observations of a series, ordered by timestamp ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.Observation, error)

	// GetByTimeRange retrieves observations of a series within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.Observation, error)

	// ListSeries returns the distinct series ids, sorted ASC.
	ListSeries(ctx context.Context) ([]string, error)
}

// RunStore provides access to analysis run records.
type RunStore interface {
	// Insert adds a run record. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunRecord) error

	// GetByID retrieves a run by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunRecord, error)

	// GetLatest retrieves the most recently generated run of a series.
	// Returns ErrNotFound if the series has no runs.
	GetLatest(ctx context.Context, seriesID string) (*domain.RunRecord, error)

	// List retrieves up to limit runs of a series, newest first. limit <= 0 means no limit.
	List(ctx context.Context, seriesID string, limit int) ([]*domain.RunRecord, error)
}
