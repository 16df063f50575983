package normalization

import (
	"sort"

	"flr-tracker/internal/domain"
)

// SortObservations orders observations by (timestamp_ms ASC, series_id ASC).
func SortObservations(obs []domain.Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return compareObservations(obs[i], obs[j]) < 0
	})
}

// compareObservations returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareObservations(a, b domain.Observation) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.SeriesID != b.SeriesID {
		if a.SeriesID < b.SeriesID {
			return -1
		}
		return 1
	}
	return 0
}

// sortedCopy returns a time-ordered copy, leaving the input untouched.
func sortedCopy(obs []domain.Observation) []domain.Observation {
	out := make([]domain.Observation, len(obs))
	copy(out, obs)
	SortObservations(out)
	return out
}
