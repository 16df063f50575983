package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"flr-tracker/internal/domain"
)

// ObservationSource provides raw observations of a named series.
type ObservationSource interface {
	// Fetch returns all observations of seriesID.
	// Observations may be unordered; Manager enforces deterministic ordering.
	Fetch(ctx context.Context, seriesID string) ([]*domain.Observation, error)
}

// CSVDirSource reads one CSV file per series from a directory.
// The file for a series is Files[seriesID] if set, otherwise "<seriesID>.csv".
type CSVDirSource struct {
	Dir   string
	Files map[string]string
}

// NewCSVDirSource creates a CSV directory source.
func NewCSVDirSource(dir string, files map[string]string) *CSVDirSource {
	return &CSVDirSource{Dir: dir, Files: files}
}

// Path returns the file path used for seriesID.
func (s *CSVDirSource) Path(seriesID string) string {
	name, ok := s.Files[seriesID]
	if !ok || name == "" {
		name = seriesID + ".csv"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// Fetch parses the series file.
func (s *CSVDirSource) Fetch(_ context.Context, seriesID string) ([]*domain.Observation, error) {
	path := s.Path(seriesID)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := ReadCSV(f, seriesID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return obs, nil
}

var _ ObservationSource = (*CSVDirSource)(nil)
