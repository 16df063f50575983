package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"flr-tracker/internal/domain"
)

// ErrBadRecord is returned for a CSV row that cannot be parsed.
var ErrBadRecord = errors.New("bad csv record")

// ReadCSV parses date,value rows into observations of seriesID.
// Dates are YYYY-MM-DD or RFC3339. A leading header row is skipped.
// Rows with a blank or "." value (FRED missing marker) are skipped.
func ReadCSV(r io.Reader, seriesID string) ([]*domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var obs []*domain.Observation
	for rec := 1; ; rec++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrBadRecord, rec, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: record %d: expected date,value", ErrBadRecord, rec)
		}

		ts, err := parseDate(record[0])
		if err != nil {
			if rec == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%w: record %d: %v", ErrBadRecord, rec, err)
		}

		raw := strings.TrimSpace(record[1])
		if raw == "" || raw == "." {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: record %d: invalid value %q", ErrBadRecord, rec, raw)
		}

		obs = append(obs, &domain.Observation{
			SeriesID:    seriesID,
			TimestampMs: ts,
			Value:       v,
		})
	}

	return obs, nil
}

// parseDate returns Unix ms of a YYYY-MM-DD date (UTC midnight) or an RFC3339 timestamp.
func parseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UnixMilli(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC().UnixMilli(), nil
}
