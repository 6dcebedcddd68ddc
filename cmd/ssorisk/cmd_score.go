package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sso-risk-etl/internal/adapter/csvio"
	"github.com/couchcryptid/sso-risk-etl/internal/pipeline"
	"github.com/couchcryptid/sso-risk-etl/internal/report"
	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

var scoreFlags struct {
	input  string
	output string
	serve  bool
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Repair, canonicalize, score, and rank the spill records",
	Long: `Score reads the raw SSO extract, repairs pipe ages entered as install
years or months, canonicalizes material names, drops records with no usable
age or material, and writes the scored and ranked table.

File paths default to the INPUT_CSV, OUTPUT_CSV, and RESULTS_CSV environment
variables.`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreFlags.input, "input", "i", "", "Raw SSO CSV path (default: $INPUT_CSV)")
	f.StringVarP(&scoreFlags.output, "output", "o", "", "Scored CSV path (default: $OUTPUT_CSV)")
	f.BoolVar(&scoreFlags.serve, "serve", false, "Expose health and metrics endpoints during the run")
}

func runScore(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err = scorePass(ctx, a, scoreFlags.input, scoreFlags.output, scoreFlags.serve)
	return err
}

// scorePass runs one full preprocessing pass and saves the scored table to
// the output path and to the results CSV consumed by validate and add-cities.
func scorePass(ctx context.Context, a *app, input, output string, serve bool) (*table.Table, error) {
	if input == "" {
		input = a.cfg.InputCSV
	}
	if output == "" {
		output = a.cfg.OutputCSV
	}

	pre := pipeline.New(a.logger, a.metrics)
	if serve {
		defer a.startServer(pre)()
	}

	tbl, err := csvio.Load(input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored, stats, err := pre.Run(tbl)
	if err != nil {
		return nil, err
	}

	if err := csvio.Save(output, scored); err != nil {
		return nil, err
	}
	if err := csvio.Save(a.cfg.ResultsCSV, scored); err != nil {
		return nil, err
	}
	importance := filepath.Join(filepath.Dir(a.cfg.ResultsCSV), "feature_importance.csv")
	if err := report.SaveFeatureImportance(importance); err != nil {
		return nil, err
	}
	a.logger.Info("scored table written",
		"output", output,
		"results", a.cfg.ResultsCSV,
		"records_scored", stats.RecordsScored,
		"records_dropped", stats.RecordsDropped,
	)
	return scored, nil
}
