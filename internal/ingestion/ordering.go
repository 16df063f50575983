package ingestion

import (
	"errors"
	"sort"

	"flr-tracker/internal/domain"
)

// ErrInvalidOrdering is returned when observations are not properly ordered.
var ErrInvalidOrdering = errors.New("observations are not in deterministic order")

// SortObservations orders observations by (series_id ASC, timestamp_ms ASC).
func SortObservations(obs []*domain.Observation) {
	sort.Slice(obs, func(i, j int) bool {
		return compareObservations(obs[i], obs[j]) < 0
	})
}

// ValidateObservationOrdering checks if observations are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateObservationOrdering(obs []*domain.Observation) error {
	for i := 1; i < len(obs); i++ {
		if compareObservations(obs[i-1], obs[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareObservations returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (series_id ASC, timestamp_ms ASC)
func compareObservations(a, b *domain.Observation) int {
	if a.SeriesID != b.SeriesID {
		if a.SeriesID < b.SeriesID {
			return -1
		}
		return 1
	}
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	return 0
}
