package migrations

import (
	"context"
	"fmt"

	"flr-tracker/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded PostgreSQL files in lexical order
// and returns the applied file names. Migrations must be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, m := range files {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		applied = append(applied, m.name)
	}
	return applied, nil
}
