package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flr-tracker/internal/pipeline"
)

var computeIngest bool

// computeCmd implements 'flr compute'
var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Run the analysis once and write the output files",
	Long: `Run the full pipeline once: build the timeline from stored observations,
compute the indicators and write flr-data.json, FLR_REPORT.md and
timeseries.csv into the output directory.

With the memory backend the CSV files are always loaded first.

Example usage:
  flr compute                          # memory backend, CSVs from ./data
  flr compute --config flr.yaml        # configured backend
  flr compute --ingest                 # load CSVs into the database first`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().BoolVar(&computeIngest, "ingest", false, "Load CSV files before computing")
}

func runCompute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if st.memory || computeIngest {
		if _, err := ingestCSV(ctx, cfg, st.observations, nil); err != nil {
			return err
		}
	}

	out, err := pipeline.New(st.observations, cfg).
		WithRunStore(st.runs).
		WithLogger(logger).
		Run(ctx)
	if err != nil {
		return err
	}

	doc := out.Document
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", out.RunID)
	if doc.DateRange != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "  Records: %d (%s to %s)\n", doc.RecordCount, doc.DateRange.Start, doc.DateRange.End)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Regime:  %s (%.1f) %s\n", doc.Regime.Status, doc.Regime.Composite, doc.Regime.Signal)
	fmt.Fprintf(cmd.OutOrStdout(), "  AR(1):   %.4f %s\n", doc.CSD.CurrentAR1, doc.CSD.Status)
	fmt.Fprintf(cmd.OutOrStdout(), "  LPPL:    bubble=%t confidence=%d%%\n", doc.LPPL.IsBubble, doc.LPPL.Confidence)
	for _, f := range out.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "  Wrote %s\n", f)
	}
	if out.AlreadyRecorded {
		fmt.Fprintln(cmd.OutOrStdout(), "  Run record already stored")
	}
	return nil
}
