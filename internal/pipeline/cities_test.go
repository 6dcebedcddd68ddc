package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

type stubGeocoder struct {
	calls  int
	cities map[string]string
	err    error
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	key := strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64)
	return s.cities[key], nil
}

func cityTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(
		[]string{"latitude", "longitude", ColRiskScore},
		rows,
	)
	require.NoError(t, err)
	return tbl
}

func TestAnnotateCities_TopNOnly(t *testing.T) {
	tbl := cityTable(t, [][]string{
		{"34.05", "-118.24", "95"},
		{"33.95", "-118.40", "90"},
		{"34.10", "-118.10", "20"}, // outside top 2
	})

	geo := &stubGeocoder{cities: map[string]string{
		"34.05,-118.24": "Los Angeles",
		"33.95,-118.4":  "El Segundo",
		"34.1,-118.1":   "Pasadena",
	}}

	n, err := AnnotateCities(context.Background(), tbl, geo, 2, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 2, geo.calls, "only top-N coordinates hit the geocoder")
	assert.Equal(t, 2, n)
	assert.Equal(t, "Los Angeles", tbl.Get(0, ColCity))
	assert.Equal(t, "El Segundo", tbl.Get(1, ColCity))
	assert.Equal(t, "", tbl.Get(2, ColCity))
}

type cachingStubGeocoder struct {
	stubGeocoder
	cached map[string]string
}

func (s *cachingStubGeocoder) CachedCity(lat, lon float64) (string, bool) {
	key := strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64)
	city, ok := s.cached[key]
	return city, ok && city != ""
}

func TestAnnotateCities_FillsFromCacheBeyondTopN(t *testing.T) {
	tbl := cityTable(t, [][]string{
		{"34.05", "-118.24", "95"},
		{"34.10", "-118.10", "20"}, // outside top 1, cached on an earlier run
		{"33.70", "-118.30", "10"}, // outside top 1, never geocoded
	})

	geo := &cachingStubGeocoder{
		stubGeocoder: stubGeocoder{cities: map[string]string{"34.05,-118.24": "Los Angeles"}},
		cached:       map[string]string{"34.1,-118.1": "Pasadena"},
	}

	n, err := AnnotateCities(context.Background(), tbl, geo, 1, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, geo.calls, "only the top coordinate hits the geocoder")
	assert.Equal(t, 2, n)
	assert.Equal(t, "Los Angeles", tbl.Get(0, ColCity))
	assert.Equal(t, "Pasadena", tbl.Get(1, ColCity), "filled from the cache")
	assert.Equal(t, "", tbl.Get(2, ColCity))
}

func TestAnnotateCities_DeduplicatesCoordinates(t *testing.T) {
	tbl := cityTable(t, [][]string{
		{"34.05", "-118.24", "95"},
		{"34.05", "-118.24", "90"},
	})

	geo := &stubGeocoder{cities: map[string]string{"34.05,-118.24": "Los Angeles"}}

	n, err := AnnotateCities(context.Background(), tbl, geo, 2, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 2, n, "both rows sharing the coordinate are filled")
	assert.Equal(t, "Los Angeles", tbl.Get(1, ColCity))
}

func TestAnnotateCities_SkipsMissingCoordinates(t *testing.T) {
	tbl := cityTable(t, [][]string{
		{"", "", "95"},
		{"34.05", "-118.24", "90"},
	})

	geo := &stubGeocoder{cities: map[string]string{"34.05,-118.24": "Los Angeles"}}

	n, err := AnnotateCities(context.Background(), tbl, geo, 2, slog.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 1, n)
	assert.Equal(t, "", tbl.Get(0, ColCity))
	assert.Equal(t, "Los Angeles", tbl.Get(1, ColCity))
}

func TestAnnotateCities_LookupFailuresAreNonFatal(t *testing.T) {
	tbl := cityTable(t, [][]string{{"34.05", "-118.24", "95"}})
	geo := &stubGeocoder{err: errors.New("upstream unavailable")}

	n, err := AnnotateCities(context.Background(), tbl, geo, 1, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAnnotateCities_CancelledContext(t *testing.T) {
	tbl := cityTable(t, [][]string{{"34.05", "-118.24", "95"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnnotateCities(ctx, tbl, &stubGeocoder{}, 1, slog.Default())
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnnotateCities_MissingColumns(t *testing.T) {
	tbl, err := table.FromRows([]string{"latitude"}, nil)
	require.NoError(t, err)

	_, err = AnnotateCities(context.Background(), tbl, &stubGeocoder{}, 1, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "longitude")
}
