package maps

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/resilience"
	"github.com/gurbanow/rideline/pkg/tracing"
)

// Service provides route computation with a circuit breaker around the
// external provider and a Haversine fallback when the provider is down or
// unconfigured.
type Service struct {
	primary  RouteProvider
	fallback RouteProvider
	breaker  *resilience.CircuitBreaker
}

// NewService wires the route provider chain. When no Google API key is
// configured the service runs on the Haversine fallback alone.
func NewService(cfg config.MapsConfig) *Service {
	s := &Service{
		fallback: NewHaversineProvider(),
	}

	if cfg.GoogleAPIKey != "" {
		s.primary = NewGoogleProvider(cfg)
		s.breaker = resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "maps-google",
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		}, nil)
	}

	return s
}

// GetRoute returns the best available route. External provider failures
// degrade to the straight-line estimate rather than erroring out.
func (s *Service) GetRoute(ctx context.Context, origin, destination Coordinate) (*Route, error) {
	var route *Route
	err := tracing.TraceOperation(ctx, "maps", "get_route", func(ctx context.Context) error {
		var err error
		route, err = s.getRoute(ctx, origin, destination)
		return err
	})
	return route, err
}

func (s *Service) getRoute(ctx context.Context, origin, destination Coordinate) (*Route, error) {
	if s.primary != nil {
		result, err := s.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return s.primary.GetRoute(ctx, origin, destination)
		})
		if err == nil {
			return result.(*Route), nil
		}
		logger.Warn("route provider failed, using haversine estimate", zap.Error(err))
	}

	return s.fallback.GetRoute(ctx, origin, destination)
}
