package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"flr-tracker/internal/config"
	"flr-tracker/internal/storage"
)

// loadCmd implements 'flr load'
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load series CSV files into the observation store",
	Long: `Read one CSV file per configured series (date,value; FRED export format)
from the series csv_dir and insert the observations into the configured store.
Series that are already stored are skipped. Prints the loaded counts and the
series the store now holds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, cleanup, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if st.memory {
			logger.Warn().Msg("memory backend: loaded observations are discarded on exit")
		}

		counts, err := ingestCSV(ctx, cfg, st.observations, nil)
		if err != nil {
			return err
		}
		return printLoadSummary(ctx, cfg, st.observations, counts, cmd.OutOrStdout())
	},
}

// printLoadSummary prints the per-series counts of this load and the series
// held by the store. Configured series the store does not hold are listed as
// missing.
func printLoadSummary(ctx context.Context, c *config.Config, store storage.ObservationStore, counts map[string]int, w io.Writer) error {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%-14s %d observations\n", id, counts[id])
	}

	stored, err := store.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("list series: %w", err)
	}
	held := make(map[string]bool, len(stored))
	for _, id := range stored {
		held[id] = true
	}
	fmt.Fprintf(w, "Stored series: %d\n", len(stored))
	for _, id := range c.SeriesIDs() {
		if !held[id] {
			fmt.Fprintf(w, "  missing %s\n", id)
		}
	}
	return nil
}
