// Package main provides the flr command line: load observations, run
// migrations, compute the regime report once, serve it on a schedule or
// replay a stored run.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"flr-tracker/internal/config"
	"flr-tracker/internal/logging"
)

var (
	configPath string
	envFile    string
	logLevel   string

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
)

// rootCmd is the base command for the flr CLI
var rootCmd = &cobra.Command{
	Use:   "flr",
	Short: "Financial liquidity regime tracker",
	Long: `flr computes critical slowing down indicators, an LPPL bubble signature
and a composite fragility score from market prices and Federal Reserve
liquidity series.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadWithEnv(configPath, envFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		log, closer, err := logging.New(loaded.Log)
		if err != nil {
			return err
		}
		cfg, logger, logCloser = loaded, log, closer
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(computeCmd, loadCmd, migrateCmd, serveCmd, verifyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
