package clickhouse

import (
	"context"
	"fmt"
	"math"

	"flr-tracker/internal/domain"
	"flr-tracker/internal/storage"
)

// ObservationStore implements storage.ObservationStore using ClickHouse.
type ObservationStore struct {
	conn *Conn
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(conn *Conn) *ObservationStore {
	return &ObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// InsertBulk adds multiple observations. Fails entire batch on duplicate (series_id, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are checked before the insert.
func (s *ObservationStore) InsertBulk(ctx context.Context, obs []*domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	type key struct {
		seriesID    string
		timestampMs int64
	}
	type span struct{ min, max int64 }

	// Check for intra-batch duplicates and collect per-series ranges
	seen := make(map[key]struct{}, len(obs))
	spans := make(map[string]span)
	for _, o := range obs {
		if o == nil || o.SeriesID == "" || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return storage.ErrInvalidInput
		}
		k := key{o.SeriesID, o.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}

		sp, ok := spans[o.SeriesID]
		if !ok {
			sp = span{o.TimestampMs, o.TimestampMs}
		}
		sp.min = min(sp.min, o.TimestampMs)
		sp.max = max(sp.max, o.TimestampMs)
		spans[o.SeriesID] = sp
	}

	// Check for duplicates against existing rows, one range query per series
	for seriesID, sp := range spans {
		existing, err := s.GetByTimeRange(ctx, seriesID, sp.min, sp.max)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, e := range existing {
			if _, dup := seen[key{e.SeriesID, e.TimestampMs}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO observations (series_id, timestamp_ms, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		if err := batch.Append(o.SeriesID, o.TimestampMs, o.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeries retrieves all observations of a series, ordered by timestamp ASC.
func (s *ObservationStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.Observation, error) {
	query := `
		SELECT series_id, timestamp_ms, value
		FROM observations
		WHERE series_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query by series id: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves observations of a series within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.Observation, error) {
	query := `
		SELECT series_id, timestamp_ms, value
		FROM observations
		WHERE series_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ListSeries returns the distinct series ids, sorted ASC.
func (s *ObservationStore) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `SELECT DISTINCT series_id FROM observations ORDER BY series_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan series id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}
	return ids, nil
}

// scanObservations scans multiple rows.
func scanObservations(rows chRows) ([]*domain.Observation, error) {
	var obs []*domain.Observation

	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.SeriesID, &o.TimestampMs, &o.Value); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		obs = append(obs, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}

	return obs, nil
}
