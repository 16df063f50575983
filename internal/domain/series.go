package domain

import "time"

// Observation is a single raw data point of a named series.
// Corresponds to the observations table in ClickHouse.
type Observation struct {
	SeriesID    string  // source series identifier (e.g. SP500, WALCL)
	TimestampMs int64   // Unix timestamp in milliseconds (UTC midnight for daily data)
	Value       float64 // observed value in the series' native units
}

// PriceSeries is the ordered input handed to the analysis engine.
// Timestamps are optional calendar metadata: when nil the series is indexed by position.
type PriceSeries struct {
	ID         string
	Timestamps []int64   // Unix ms, strictly increasing, len == len(Values) or nil
	Values     []float64 // finite, positive
}

// Len returns the number of points.
func (s PriceSeries) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether calendar metadata is attached.
func (s PriceSeries) HasTimestamps() bool {
	return s.Timestamps != nil
}

// Tail returns the trailing n points sharing the underlying arrays.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s.Values) {
		return s
	}
	start := len(s.Values) - n
	tail := PriceSeries{ID: s.ID, Values: s.Values[start:]}
	if s.Timestamps != nil {
		tail.Timestamps = s.Timestamps[start:]
	}
	return tail
}

// DayMs is one calendar day in milliseconds.
const DayMs = int64(24 * time.Hour / time.Millisecond)

// TimeOf converts a Unix ms timestamp to UTC time.
func TimeOf(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// DateString formats a Unix ms timestamp as YYYY-MM-DD.
func DateString(ms int64) string {
	return TimeOf(ms).Format(time.DateOnly)
}
