// Package http exposes the operational endpoints of a scoring run: liveness,
// readiness, Prometheus metrics, and a JSON snapshot of the latest run stats.
// A batch run is long enough on the full county extract that operators want
// to watch it from the outside.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/sso-risk-etl/internal/pipeline"
)

// ReadinessChecker reports whether the pipeline is ready to process a run.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// StatsSource returns the stats of the most recent completed run, or false
// when no run has finished yet.
type StatsSource interface {
	LastRunStats() (pipeline.Stats, bool)
}

// Server serves the operational HTTP surface during a scoring run.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer wires /healthz, /readyz, /metrics, and /stats onto addr.
func NewServer(addr string, ready ReadinessChecker, stats StatsSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady(ready))
	mux.HandleFunc("GET /stats", s.handleStats(stats))
	mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

// Start listens until Shutdown. Returns http.ErrServerClosed after a
// graceful stop.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP routes through the server's mux, for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(ready ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ready.CheckReadiness(ctx); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleStats(stats StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if stats == nil {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "stats unavailable"})
			return
		}
		last, ok := stats.LastRunStats()
		if !ok {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed run"})
			return
		}
		s.writeJSON(w, http.StatusOK, last)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}
