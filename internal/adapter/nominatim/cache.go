package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/couchcryptid/sso-risk-etl/internal/domain"
	"github.com/couchcryptid/sso-risk-etl/internal/observability"
)

// checkpointEvery is how many new lookups may accumulate before the cache is
// flushed to disk, so a crash mid-run loses at most a few paid-for results.
const checkpointEvery = 10

// CachedGeocoder wraps a reverse geocoder with a JSON disk cache keyed by
// "lat,lon". Empty lookups are cached too: a coordinate Nominatim cannot
// name today is unlikely to gain a name tomorrow, and re-querying it burns
// the rate budget.
type CachedGeocoder struct {
	inner   domain.ReverseGeocoder
	path    string
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]string
	pending int
}

// NewCachedGeocoder creates the cache decorator, loading any existing cache
// file. A missing file starts an empty cache; a corrupt one is an error.
func NewCachedGeocoder(inner domain.ReverseGeocoder, path string, metrics *observability.Metrics) (*CachedGeocoder, error) {
	c := &CachedGeocoder{
		inner:   inner,
		path:    path,
		metrics: metrics,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading geocode cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing geocode cache %s: %w", path, err)
	}
	return c, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	key := cacheKey(lat, lon)

	c.mu.Lock()
	city, hit := c.entries[key]
	c.mu.Unlock()
	if hit {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return city, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	city, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = city
	c.pending++
	flush := c.pending >= checkpointEvery
	c.mu.Unlock()

	if flush {
		if err := c.Flush(); err != nil {
			return city, err
		}
	}
	return city, nil
}

// CachedCity reports the city stored for the coordinates without consulting
// the upstream geocoder. Cached empty results count as misses.
func (c *CachedGeocoder) CachedCity(lat, lon float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	city, ok := c.entries[cacheKey(lat, lon)]
	if !ok || city == "" {
		return "", false
	}
	return city, true
}

// Flush writes the cache to disk if there are unsaved entries.
func (c *CachedGeocoder) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == 0 {
		return nil
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling geocode cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	c.pending = 0
	return nil
}

// Len reports the number of cached coordinates.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64)
}
