package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"flr-tracker/internal/config"
	"flr-tracker/internal/pipeline"
	"flr-tracker/internal/verification"
)

var verifyRunID string

// errDiverged is returned when a replayed run does not match its record.
var errDiverged = errors.New("replayed run diverges from stored record")

// verifyCmd implements 'flr verify'
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay a stored run against the stored observations",
	Long: `Recompute the analysis from the stored observations in the run's date range
and compare it with the stored run record (the latest run of the price series
unless --run-id is given). Observations added after the run are ignored.
Exits non-zero if any field diverges.

With the memory backend the CSV files are loaded and one run is recorded
first, so the command checks that two runs over the same data agree.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, cleanup, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		if st.memory {
			if _, err := ingestCSV(ctx, cfg, st.observations, nil); err != nil {
				return err
			}
			if _, err := pipeline.New(st.observations, cfg).WithRunStore(st.runs).Run(ctx); err != nil {
				return err
			}
		}

		return verifyStored(ctx, cfg, st, verifyRunID, cmd.OutOrStdout())
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyRunID, "run-id", "", "Run ID to verify (default: latest run)")
}

// verifyStored replays one stored run and prints the divergences.
func verifyStored(ctx context.Context, c *config.Config, st *stores, runID string, w io.Writer) error {
	v := verification.NewReplayVerifier(st.runs, pipeline.New(st.observations, c).WithLogger(logger))

	var (
		result *verification.VerificationResult
		err    error
	)
	if runID != "" {
		result, err = v.VerifyRun(ctx, runID)
	} else {
		result, err = v.VerifyLatest(ctx, c.Series.Price)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Run %s\n", result.RunID)
	fmt.Fprintf(w, "  Replayed: %s\n", result.ReplayedRunID)
	fmt.Fprintf(w, "  Regime:   %s -> %s\n", result.StoredRegime, result.ReplayedRegime)
	if result.Match {
		fmt.Fprintln(w, "  OK")
		return nil
	}
	for _, d := range result.Divergences {
		fmt.Fprintf(w, "  %-16s stored=%v replayed=%v\n", d.Field, d.Expected, d.Actual)
	}
	logger.Warn().Str("run_id", result.RunID).Int("divergences", len(result.Divergences)).Msg("verification failed")
	return errDiverged
}
