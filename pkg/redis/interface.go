package redis

import (
	"context"
	"time"
)

// ClientInterface defines the Redis operations used by the service
type ClientInterface interface {
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error

	// Geospatial operations backing the driver directory
	GeoAdd(ctx context.Context, key string, longitude, latitude float64, member string) error
	GeoRadius(ctx context.Context, key string, longitude, latitude, radiusKm float64, count int) ([]GeoMember, error)
	GeoRemove(ctx context.Context, key string, member string) error

	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// GeoMember is a proximity query result, distance in kilometres.
type GeoMember struct {
	Name       string
	DistanceKm float64
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)
