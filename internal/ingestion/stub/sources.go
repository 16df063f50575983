package stub

import (
	"context"
	"fmt"
	"os"

	"flr-tracker/internal/domain"
)

// StubObservationSource returns fixed in-memory observations for testing.
// Observations can be intentionally unordered to test sorting.
// Implements ingestion.ObservationSource interface.
type StubObservationSource struct {
	obs     []*domain.Observation
	err     error
	missing map[string]bool
}

// NewStubObservationSource creates a new stub source with the given observations.
func NewStubObservationSource(obs []*domain.Observation) *StubObservationSource {
	return &StubObservationSource{obs: obs}
}

// WithError makes every Fetch fail with err.
func (s *StubObservationSource) WithError(err error) *StubObservationSource {
	s.err = err
	return s
}

// WithMissing makes Fetch of the given series fail with os.ErrNotExist.
func (s *StubObservationSource) WithMissing(seriesIDs ...string) *StubObservationSource {
	if s.missing == nil {
		s.missing = make(map[string]bool)
	}
	for _, id := range seriesIDs {
		s.missing[id] = true
	}
	return s
}

// Fetch returns copies of the observations of seriesID.
func (s *StubObservationSource) Fetch(_ context.Context, seriesID string) ([]*domain.Observation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.missing[seriesID] {
		return nil, fmt.Errorf("series %s: %w", seriesID, os.ErrNotExist)
	}
	var result []*domain.Observation
	for _, o := range s.obs {
		if o.SeriesID == seriesID {
			c := *o
			result = append(result, &c)
		}
	}
	return result, nil
}
