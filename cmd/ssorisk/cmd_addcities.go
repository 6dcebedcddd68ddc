package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/sso-risk-etl/internal/adapter/csvio"
	"github.com/couchcryptid/sso-risk-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/sso-risk-etl/internal/pipeline"
)

var addCitiesFlags struct {
	results string
	topN    int
}

var addCitiesCmd = &cobra.Command{
	Use:   "add-cities",
	Short: "Reverse-geocode the top risk locations",
	Long: `Add-cities resolves the coordinates of the highest-risk records to city
names using the OpenStreetMap Nominatim API and writes them into the city
column of the results CSV.

Lookups are throttled to Nominatim's one-request-per-second policy and cached
on disk, so re-runs only pay for coordinates not seen before.`,
	Args: cobra.NoArgs,
	RunE: runAddCities,
}

func init() {
	f := addCitiesCmd.Flags()
	f.StringVarP(&addCitiesFlags.results, "results", "r", "", "Results CSV path (default: $RESULTS_CSV)")
	f.IntVar(&addCitiesFlags.topN, "top", 0, "How many top-risk records to geocode (default: $NOMINATIM_TOP_N)")
}

func runAddCities(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if !a.cfg.NominatimEnabled {
		return errors.New("reverse geocoding is disabled, set NOMINATIM_ENABLED=true")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results := addCitiesFlags.results
	if results == "" {
		results = a.cfg.ResultsCSV
	}
	topN := addCitiesFlags.topN
	if topN <= 0 {
		topN = a.cfg.NominatimTopN
	}

	tbl, err := csvio.Load(results)
	if err != nil {
		return err
	}

	client := nominatim.NewClient(
		a.cfg.NominatimBaseURL,
		a.cfg.NominatimUserAgent,
		a.cfg.NominatimTimeout,
		a.cfg.NominatimMinInterval,
		a.metrics,
		a.logger,
	)
	geocoder, err := nominatim.NewCachedGeocoder(client, a.cfg.NominatimCachePath, a.metrics)
	if err != nil {
		return err
	}
	a.logger.Info("geocode cache loaded", "path", a.cfg.NominatimCachePath, "entries", geocoder.Len())

	annotated, err := pipeline.AnnotateCities(ctx, tbl, geocoder, topN, a.logger)
	if flushErr := geocoder.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		return err
	}

	if err := csvio.Save(results, tbl); err != nil {
		return err
	}
	a.logger.Info("cities written", "path", results, "rows_annotated", annotated)
	return nil
}
