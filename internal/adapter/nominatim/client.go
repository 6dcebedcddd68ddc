// Package nominatim reverse-geocodes spill coordinates against the
// OpenStreetMap Nominatim API. Nominatim's usage policy allows at most one
// request per second, so the client throttles itself and callers should wrap
// it in the disk cache decorator to avoid re-querying known coordinates.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/sso-risk-etl/internal/observability"
)

// Client implements domain.ReverseGeocoder using Nominatim's /reverse endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a throttled Nominatim client. minInterval is the gap
// enforced between requests; the public API requires at least one second.
func NewClient(baseURL, userAgent string, timeout, minInterval time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode resolves coordinates to a locality name. Incorporated
// cities are returned as-is; unincorporated neighborhoods are tagged, and
// the county is the last resort. An empty string means Nominatim had no
// usable address, which is not an error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"zoom":           {"14"},
		"addressdetails": {"1"},
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var nomResp response
	if err := json.NewDecoder(resp.Body).Decode(&nomResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}

	city := nomResp.Address.locality()
	if city == "" {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("no locality in response", "lat", lat, "lon", lon)
		return "", nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return city, nil
}

// Nominatim API response types.

type response struct {
	Address address `json:"address"`
}

type address struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Hamlet        string `json:"hamlet"`
	Locality      string `json:"locality"`
	County        string `json:"county"`
}

// locality picks the most specific usable place name. Incorporated places
// win; named unincorporated areas are labeled as such; the bare county is
// the final fallback.
func (a address) locality() string {
	for _, city := range []string{a.City, a.Town, a.Village} {
		if city != "" {
			return city
		}
	}
	for _, local := range []string{a.Suburb, a.Neighbourhood, a.Hamlet, a.Locality} {
		if local != "" {
			return local + " (Unincorporated)"
		}
	}
	if strings.Contains(a.County, "Los Angeles") {
		return "Los Angeles County (Unincorporated)"
	}
	return a.County
}
