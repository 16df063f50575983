package normalization

import (
	"errors"

	"flr-tracker/internal/domain"
)

// ErrNoData is returned when a lookup is made against an empty series.
var ErrNoData = errors.New("no observations available")

// ValueAt returns the value at or before target.
// Observations must be sorted by timestamp.
// Returns (nil, nil) if nothing was observed before target (valid case).
// Returns ErrNoData if the slice is empty.
func ValueAt(target int64, obs []domain.Observation) (*float64, error) {
	if len(obs) == 0 {
		return nil, ErrNoData
	}

	for i := len(obs) - 1; i >= 0; i-- {
		if obs[i].TimestampMs <= target {
			v := obs[i].Value
			return &v, nil
		}
	}

	return nil, nil
}

// filler forward fills a sorted series onto ascending target timestamps.
type filler struct {
	obs   []domain.Observation
	next  int
	last  float64
	valid bool
	scale float64
}

func newFiller(obs []domain.Observation, scale float64) *filler {
	return &filler{obs: sortedCopy(obs), scale: scale}
}

// at returns the scaled value at or before target. Targets must not decrease.
func (f *filler) at(target int64) *float64 {
	for f.next < len(f.obs) && f.obs[f.next].TimestampMs <= target {
		f.last = f.obs[f.next].Value / f.scale
		f.valid = true
		f.next++
	}
	if !f.valid {
		return nil
	}
	v := f.last
	return &v
}
