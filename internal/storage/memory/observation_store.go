package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"flr-tracker/internal/domain"
	"flr-tracker/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Observation // keyed by (series_id, timestamp_ms)
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string]*domain.Observation),
	}
}

// observationKey generates a unique key for an observation.
func observationKey(seriesID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", seriesID, timestampMs)
}

// InsertBulk adds multiple observations. Fails entire batch on duplicate.
func (s *ObservationStore) InsertBulk(_ context.Context, obs []*domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(obs))

	// First pass: validate and check duplicates (existing + intra-batch)
	for _, o := range obs {
		if o == nil || o.SeriesID == "" || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return storage.ErrInvalidInput
		}
		key := observationKey(o.SeriesID, o.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, o := range obs {
		obsCopy := *o
		s.data[observationKey(o.SeriesID, o.TimestampMs)] = &obsCopy
	}

	return nil
}

// GetBySeries retrieves all observations of a series, ordered by timestamp ASC.
func (s *ObservationStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.Observation, error) {
	return s.collect(func(o *domain.Observation) bool {
		return o.SeriesID == seriesID
	}), nil
}

// GetByTimeRange retrieves observations of a series within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(_ context.Context, seriesID string, start, end int64) ([]*domain.Observation, error) {
	return s.collect(func(o *domain.Observation) bool {
		return o.SeriesID == seriesID && o.TimestampMs >= start && o.TimestampMs <= end
	}), nil
}

// ListSeries returns the distinct series ids, sorted ASC.
func (s *ObservationStore) ListSeries(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, o := range s.data {
		seen[o.SeriesID] = struct{}{}
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

func (s *ObservationStore) collect(match func(*domain.Observation) bool) []*domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Observation
	for _, o := range s.data {
		if match(o) {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result
}

var _ storage.ObservationStore = (*ObservationStore)(nil)
