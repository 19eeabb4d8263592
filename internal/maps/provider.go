package maps

import (
	"context"

	"github.com/gurbanow/rideline/pkg/models"
)

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Route is a computed driving route between two points.
type Route struct {
	DistanceMeters  int                `json:"distance_meters"`
	DurationSeconds int                `json:"duration_seconds"`
	Polyline        string             `json:"polyline,omitempty"`
	Steps           []models.RouteStep `json:"steps,omitempty"`
}

// RouteProvider computes driving routes. Implementations must be safe for
// concurrent use.
type RouteProvider interface {
	// GetRoute returns the best driving route from origin to destination.
	GetRoute(ctx context.Context, origin, destination Coordinate) (*Route, error)
}
