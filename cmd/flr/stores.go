package main

import (
	"context"
	"fmt"

	"flr-tracker/internal/config"
	"flr-tracker/internal/ingestion"
	"flr-tracker/internal/observability"
	"flr-tracker/internal/storage"
	chstore "flr-tracker/internal/storage/clickhouse"
	"flr-tracker/internal/storage/memory"
	pgstore "flr-tracker/internal/storage/postgres"
)

// stores holds the configured storage implementations.
type stores struct {
	observations storage.ObservationStore
	runs         storage.RunStore
	memory       bool
}

// openStores connects to the configured backend. The cleanup func closes
// any open connections.
func openStores(ctx context.Context, c *config.Config) (*stores, func(), error) {
	if c.Storage.Backend == config.BackendMemory {
		return &stores{
			observations: memory.NewObservationStore(),
			runs:         memory.NewRunStore(),
			memory:       true,
		}, func() {}, nil
	}

	// PostgreSQL (run records)
	pool, err := pgstore.NewPoolWithOptions(ctx, c.Storage.PostgresDSN, pgstore.PoolOptions{MaxConns: c.Storage.MaxConns})
	if err != nil {
		return nil, nil, err
	}

	// ClickHouse (observations)
	chConn, err := chstore.NewConn(ctx, c.Storage.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return &stores{
		observations: chstore.NewObservationStore(chConn),
		runs:         pgstore.NewRunStore(pool),
	}, cleanup, nil
}

// ingestCSV loads every configured series from the CSV directory. Missing
// files are skipped; series that are already stored are left unchanged.
func ingestCSV(ctx context.Context, c *config.Config, store storage.ObservationStore, m *observability.Metrics) (map[string]int, error) {
	source := ingestion.NewCSVDirSource(c.Series.CSVDir, c.Series.Files)

	res, err := ingestion.NewManager(source, store).IngestAll(ctx, c.SeriesIDs())
	if err != nil {
		return res.Counts, err
	}
	for _, id := range res.Missing {
		logger.Warn().Str("series", id).Str("path", source.Path(id)).Msg("series file not found, skipping")
	}
	for _, id := range res.Existing {
		logger.Info().Str("series", id).Msg("series already loaded")
	}
	for id, n := range res.Counts {
		m.RecordObservations(id, n)
		logger.Debug().Str("series", id).Int("observations", n).Msg("series loaded")
	}
	return res.Counts, nil
}
