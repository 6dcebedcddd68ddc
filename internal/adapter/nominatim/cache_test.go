package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sso-risk-etl/internal/observability"
)

type countingGeocoder struct {
	calls int
	city  string
	err   error
}

func (g *countingGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.city, nil
}

func newTestCache(t *testing.T, inner *countingGeocoder) (*CachedGeocoder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "city_cache.json")
	c, err := NewCachedGeocoder(inner, path, observability.NewMetricsForTesting())
	require.NoError(t, err)
	return c, path
}

func TestCachedGeocoder_HitSkipsInner(t *testing.T) {
	inner := &countingGeocoder{city: "Compton"}
	c, _ := newTestCache(t, inner)

	city, err := c.ReverseGeocode(context.Background(), 33.89, -118.22)
	require.NoError(t, err)
	assert.Equal(t, "Compton", city)

	city, err = c.ReverseGeocode(context.Background(), 33.89, -118.22)
	require.NoError(t, err)
	assert.Equal(t, "Compton", city)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_CachedCity(t *testing.T) {
	inner := &countingGeocoder{city: "Compton"}
	c, _ := newTestCache(t, inner)

	_, ok := c.CachedCity(33.89, -118.22)
	assert.False(t, ok, "nothing cached yet")

	_, err := c.ReverseGeocode(context.Background(), 33.89, -118.22)
	require.NoError(t, err)

	city, ok := c.CachedCity(33.89, -118.22)
	assert.True(t, ok)
	assert.Equal(t, "Compton", city)
	assert.Equal(t, 1, inner.calls, "CachedCity never reaches the inner geocoder")
}

func TestCachedGeocoder_CachedCityIgnoresEmptyEntries(t *testing.T) {
	inner := &countingGeocoder{city: ""}
	c, _ := newTestCache(t, inner)

	_, err := c.ReverseGeocode(context.Background(), 0, 0)
	require.NoError(t, err)

	_, ok := c.CachedCity(0, 0)
	assert.False(t, ok, "cached empty lookups are not usable cities")
}

func TestCachedGeocoder_CachesEmptyResults(t *testing.T) {
	inner := &countingGeocoder{city: ""}
	c, _ := newTestCache(t, inner)

	for i := 0; i < 3; i++ {
		city, err := c.ReverseGeocode(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Equal(t, "", city)
	}
	assert.Equal(t, 1, inner.calls, "empty answers are cached too")
}

func TestCachedGeocoder_ErrorsAreNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("timeout")}
	c, _ := newTestCache(t, inner)

	_, err := c.ReverseGeocode(context.Background(), 34.05, -118.24)
	require.Error(t, err)

	inner.err = nil
	inner.city = "Los Angeles"
	city, err := c.ReverseGeocode(context.Background(), 34.05, -118.24)
	require.NoError(t, err)
	assert.Equal(t, "Los Angeles", city)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_CheckpointsEveryTen(t *testing.T) {
	inner := &countingGeocoder{city: "Somewhere"}
	c, path := newTestCache(t, inner)

	for i := 0; i < 9; i++ {
		_, err := c.ReverseGeocode(context.Background(), float64(i), 0)
		require.NoError(t, err)
	}
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no checkpoint before the tenth lookup")

	_, err := c.ReverseGeocode(context.Background(), 9, 0)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries map[string]string
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 10)
}

func TestCachedGeocoder_FlushAndReload(t *testing.T) {
	inner := &countingGeocoder{city: "Torrance"}
	c, path := newTestCache(t, inner)

	_, err := c.ReverseGeocode(context.Background(), 33.83, -118.34)
	require.NoError(t, err)
	require.NoError(t, c.Flush())

	reloaded, err := NewCachedGeocoder(&countingGeocoder{}, path, observability.NewMetricsForTesting())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())

	city, err := reloaded.ReverseGeocode(context.Background(), 33.83, -118.34)
	require.NoError(t, err)
	assert.Equal(t, "Torrance", city)
}

func TestCachedGeocoder_FlushIsIdempotent(t *testing.T) {
	c, path := newTestCache(t, &countingGeocoder{})
	require.NoError(t, c.Flush())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing pending, nothing written")
}

func TestNewCachedGeocoder_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewCachedGeocoder(&countingGeocoder{}, path, observability.NewMetricsForTesting())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing geocode cache")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "34.05,-118.24", cacheKey(34.05, -118.24))
	assert.Equal(t, fmt.Sprintf("%v,%v", 33.7175, -118.042), cacheKey(33.7175, -118.042))
}
