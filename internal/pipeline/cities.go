package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/couchcryptid/sso-risk-etl/internal/domain"
	"github.com/couchcryptid/sso-risk-etl/internal/table"
)

// Columns used by city annotation.
const (
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColCity      = "city"
)

// CityCache exposes cities already resolved on earlier runs, without a
// network lookup. The caching geocoder implements it; plain geocoders do not.
type CityCache interface {
	CachedCity(lat, lon float64) (string, bool)
}

// AnnotateCities reverse-geocodes the coordinates of the topN records by risk
// score and writes the resolved city into the city column, creating it if
// needed. Every row is then filled from the lookups of this run plus, when
// the geocoder carries a CityCache, from cities cached on earlier runs.
// Lookup failures log a warning and leave the cell empty; only context
// cancellation aborts the run. Returns the number of rows annotated.
func AnnotateCities(ctx context.Context, tbl *table.Table, geocoder domain.ReverseGeocoder, topN int, logger *slog.Logger) (int, error) {
	for _, col := range []string{ColLatitude, ColLongitude, ColRiskScore} {
		if !tbl.HasColumn(col) {
			return 0, fmt.Errorf("table is missing column %q", col)
		}
	}
	if !tbl.HasColumn(ColCity) {
		if err := tbl.AddColumn(ColCity); err != nil {
			return 0, err
		}
	}

	// Rank rows by risk score and collect the unique coordinates of the top N.
	rows := make([]int, tbl.Len())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		sa, _ := tbl.Float(rows[a], ColRiskScore)
		sb, _ := tbl.Float(rows[b], ColRiskScore)
		return sa > sb
	})
	if topN > len(rows) {
		topN = len(rows)
	}

	coords := make(map[string][2]float64)
	var order []string
	for _, row := range rows[:topN] {
		key, lat, lon, ok := coordKey(tbl, row)
		if !ok {
			continue
		}
		if _, seen := coords[key]; !seen {
			coords[key] = [2]float64{lat, lon}
			order = append(order, key)
		}
	}
	logger.Info("annotating cities", "top_n", topN, "unique_coordinates", len(order))

	cities := make(map[string]string, len(order))
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		latLon := coords[key]
		city, err := geocoder.ReverseGeocode(ctx, latLon[0], latLon[1])
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			logger.Warn("reverse geocode failed", "lat", latLon[0], "lon", latLon[1], "error", err)
			continue
		}
		cities[key] = city
	}

	cache, _ := geocoder.(CityCache)
	annotated := 0
	for row := 0; row < tbl.Len(); row++ {
		key, lat, lon, ok := coordKey(tbl, row)
		if !ok {
			continue
		}
		city, found := cities[key]
		if !found && cache != nil {
			city, found = cache.CachedCity(lat, lon)
		}
		if !found || city == "" {
			continue
		}
		tbl.Set(row, ColCity, city)
		annotated++
	}
	return annotated, nil
}

// coordKey builds the cache key for a row's coordinates, mirroring the
// "lat,lon" keys in the on-disk geocode cache.
func coordKey(tbl *table.Table, row int) (string, float64, float64, bool) {
	lat, okLat := tbl.Float(row, ColLatitude)
	lon, okLon := tbl.Float(row, ColLongitude)
	if !okLat || !okLon {
		return "", 0, 0, false
	}
	key := strings.TrimSpace(tbl.Get(row, ColLatitude)) + "," + strings.TrimSpace(tbl.Get(row, ColLongitude))
	return key, lat, lon, true
}
