package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sso-risk-etl/internal/adapter/csvio"
	"github.com/couchcryptid/sso-risk-etl/internal/report"
	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

var validateFlags struct {
	metricsOut string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compute validation metrics for the scored records",
	Long: `Validate correlates risk scores with spill severity indicators and
aggregates average risk by material, age band, and cause. It reads the scored
CSV written by score, running a fresh scoring pass if none exists, and writes
the metrics JSON.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateFlags.metricsOut, "metrics", "m", "", "Metrics JSON path (default: $METRICS_JSON)")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return validatePass(ctx, a, nil, validateFlags.metricsOut)
}

// validatePass builds and saves the validation metrics. A nil scored table
// means load the scored CSV from disk, falling back to a fresh scoring pass
// when the file is absent.
func validatePass(ctx context.Context, a *app, scored *table.Table, metricsOut string) error {
	if metricsOut == "" {
		metricsOut = a.cfg.MetricsJSON
	}

	raw, err := csvio.Load(a.cfg.InputCSV)
	if err != nil {
		return err
	}
	totalRecords := raw.Len()

	if scored == nil {
		scored, err = csvio.Load(a.cfg.OutputCSV)
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Info("no scored data found, running scoring pass", "path", a.cfg.OutputCSV)
			scored, err = scorePass(ctx, a, "", "", false)
		}
		if err != nil {
			return err
		}
	}

	metrics := report.NewReporter(a.logger).Build(scored, totalRecords)
	if err := report.Save(metricsOut, metrics); err != nil {
		return err
	}
	a.logger.Info("validation metrics written", "path", metricsOut)
	return nil
}
