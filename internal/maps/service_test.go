package maps

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurbanow/rideline/pkg/config"
)

type stubProvider struct {
	route *Route
	err   error
	calls int
}

func (s *stubProvider) GetRoute(ctx context.Context, origin, destination Coordinate) (*Route, error) {
	s.calls++
	return s.route, s.err
}

func TestServiceWithoutAPIKeyUsesFallback(t *testing.T) {
	svc := NewService(config.MapsConfig{})

	route, err := svc.GetRoute(context.Background(),
		Coordinate{Latitude: 37.7749, Longitude: -122.4194},
		Coordinate{Latitude: 37.8044, Longitude: -122.2712},
	)

	require.NoError(t, err)
	assert.Greater(t, route.DistanceMeters, 0)
	assert.Greater(t, route.DurationSeconds, 0)
	assert.Empty(t, route.Polyline)
}

func TestServicePrimaryFailureDegradesToFallback(t *testing.T) {
	svc := NewService(config.MapsConfig{GoogleAPIKey: "test-key"})
	primary := &stubProvider{err: errors.New("upstream down")}
	svc.primary = primary

	route, err := svc.GetRoute(context.Background(),
		Coordinate{Latitude: 37.7749, Longitude: -122.4194},
		Coordinate{Latitude: 37.8044, Longitude: -122.2712},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Greater(t, route.DistanceMeters, 0)
}

func TestServicePrimarySuccess(t *testing.T) {
	svc := NewService(config.MapsConfig{GoogleAPIKey: "test-key"})
	want := &Route{DistanceMeters: 12345, DurationSeconds: 900, Polyline: "abc"}
	svc.primary = &stubProvider{route: want}

	route, err := svc.GetRoute(context.Background(), Coordinate{}, Coordinate{})

	require.NoError(t, err)
	assert.Equal(t, want, route)
}

func TestHaversineProviderZeroDistance(t *testing.T) {
	p := NewHaversineProvider()

	route, err := p.GetRoute(context.Background(),
		Coordinate{Latitude: 10, Longitude: 10},
		Coordinate{Latitude: 10, Longitude: 10},
	)

	require.NoError(t, err)
	assert.Zero(t, route.DistanceMeters)
	assert.Zero(t, route.DurationSeconds)
}
