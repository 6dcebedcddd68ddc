package domain

import "context"

// ReverseGeocoder resolves coordinates to a human-readable city or area name.
// Implementations own their rate limiting and caching; callers treat an empty
// name as "no usable result" rather than an error.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}
