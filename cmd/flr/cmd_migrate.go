package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"flr-tracker/internal/storage/migrations"
	pgstore "flr-tracker/internal/storage/postgres"
)

// migrateCmd implements 'flr migrate'
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL and ClickHouse schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := cfg.Storage
		if s.PostgresDSN == "" || s.ClickhouseDSN == "" {
			return errors.New("postgres_dsn and clickhouse_dsn are required (FLR_POSTGRES_DSN, FLR_CLICKHOUSE_DSN)")
		}

		pool, err := pgstore.NewPool(ctx, s.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "postgres   %s\n", name)
		}

		conn, applied, err := migrations.RunClickhouseMigrations(ctx, s.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		defer conn.Close()
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "clickhouse %s\n", name)
		}

		logger.Info().Msg("migrations applied")
		return nil
	},
}
