package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	httpadapter "github.com/couchcryptid/sso-risk-etl/internal/adapter/http"
	"github.com/couchcryptid/sso-risk-etl/internal/config"
	"github.com/couchcryptid/sso-risk-etl/internal/observability"
	"github.com/couchcryptid/sso-risk-etl/internal/pipeline"
)

// app bundles the pieces every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg.LogLevel, cfg.LogFormat),
		metrics: observability.NewMetrics(),
	}, nil
}

// startServer exposes the operational endpoints while a run is in flight and
// returns a function that shuts the server down.
func (a *app) startServer(pre *pipeline.Preprocessor) func() {
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, pre, pre, a.logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
		}
	}
}
