package maps

import (
	"context"

	"github.com/gurbanow/rideline/pkg/geo"
)

// HaversineProvider is a fallback route provider that estimates straight-line
// routes when no external maps service is reachable.
type HaversineProvider struct{}

// NewHaversineProvider creates the fallback provider.
func NewHaversineProvider() *HaversineProvider {
	return &HaversineProvider{}
}

// GetRoute estimates the route from the great-circle distance and a city
// average speed. No polyline or steps are produced.
func (p *HaversineProvider) GetRoute(ctx context.Context, origin, destination Coordinate) (*Route, error) {
	distanceKm := geo.Haversine(origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	return &Route{
		DistanceMeters:  int(distanceKm * 1000),
		DurationSeconds: geo.EstimateDurationSeconds(distanceKm),
	}, nil
}
