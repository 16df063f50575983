package engine

import (
	"errors"
	"fmt"
	"math"

	"flr-tracker/internal/domain"
)

// ErrMalformedSeries is returned when the input series cannot be analysed.
var ErrMalformedSeries = errors.New("malformed series")

// Validate checks that series is non-empty, aligned, strictly increasing in
// time and carries only finite positive values.
func Validate(series domain.PriceSeries) error {
	n := series.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty series", ErrMalformedSeries)
	}
	if series.HasTimestamps() && len(series.Timestamps) != n {
		return fmt.Errorf("%w: %d timestamps for %d values", ErrMalformedSeries, len(series.Timestamps), n)
	}

	for i, v := range series.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrMalformedSeries, i)
		}
		if v <= 0 {
			return fmt.Errorf("%w: non-positive value %v at index %d", ErrMalformedSeries, v, i)
		}
	}

	if series.HasTimestamps() {
		for i := 1; i < n; i++ {
			if series.Timestamps[i] <= series.Timestamps[i-1] {
				return fmt.Errorf("%w: timestamp at index %d not after index %d", ErrMalformedSeries, i, i-1)
			}
		}
	}

	return nil
}
