// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
// CLI flags may override the file paths after loading.
type Config struct {
	InputCSV    string
	OutputCSV   string
	ResultsCSV  string
	MetricsJSON string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Nominatim reverse geocoding configuration.
	NominatimEnabled     bool
	NominatimBaseURL     string
	NominatimUserAgent   string
	NominatimTimeout     time.Duration
	NominatimMinInterval time.Duration
	NominatimCachePath   string
	NominatimTopN        int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	nominatimTimeout, err := parseDuration("NOMINATIM_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	// Nominatim's usage policy caps anonymous clients at one request per
	// second; the default leaves a little slack.
	nominatimInterval, err := parseDuration("NOMINATIM_MIN_INTERVAL", "1.1s")
	if err != nil {
		return nil, err
	}

	topN, err := parsePositiveInt("NOMINATIM_TOP_N", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputCSV:    envOrDefault("INPUT_CSV", "data/sso_la_county_analyzed.csv"),
		OutputCSV:   envOrDefault("OUTPUT_CSV", "data/preprocessed_data.csv"),
		ResultsCSV:  envOrDefault("RESULTS_CSV", "outputs/model_results.csv"),
		MetricsJSON: envOrDefault("METRICS_JSON", "outputs/model_metrics.json"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NominatimEnabled:     envOrDefault("NOMINATIM_ENABLED", "true") == "true",
		NominatimBaseURL:     envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent:   envOrDefault("NOMINATIM_USER_AGENT", "sso-risk-etl/1.0 (sewer infrastructure research)"),
		NominatimTimeout:     nominatimTimeout,
		NominatimMinInterval: nominatimInterval,
		NominatimCachePath:   envOrDefault("NOMINATIM_CACHE_PATH", "data/city_cache.json"),
		NominatimTopN:        topN,
	}

	if cfg.InputCSV == "" {
		return nil, errors.New("INPUT_CSV is required")
	}
	if cfg.OutputCSV == "" {
		return nil, errors.New("OUTPUT_CSV is required")
	}
	if cfg.NominatimBaseURL == "" {
		return nil, errors.New("NOMINATIM_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}
