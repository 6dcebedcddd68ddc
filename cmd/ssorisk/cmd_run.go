package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var runFlags struct {
	serve bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score the records and compute validation metrics in one pass",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runFlags.serve, "serve", false, "Expose health and metrics endpoints during the run")
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	scored, err := scorePass(ctx, a, "", "", runFlags.serve)
	if err != nil {
		return err
	}
	if err := validatePass(ctx, a, scored, ""); err != nil {
		return err
	}
	a.logger.Info("run complete", "records_scored", scored.Len(), "elapsed", time.Since(start))
	return nil
}
