package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurbanow/rideline/pkg/eventbus"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/metrics"
	"github.com/gurbanow/rideline/pkg/models"
	redisclient "github.com/gurbanow/rideline/pkg/redis"
)

const (
	driverGeoIndexKey    = "drivers:geo:index"
	driverLocationPrefix = "driver:location:"
	driverLocationTTL    = 5 * time.Minute

	// candidateOverfetch widens the geo query so that post-filtering by
	// eligibility still yields enough candidates.
	candidateOverfetch = 3
)

// ProfileStore is the persistence surface the driver service depends on.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	GetEligible(ctx context.Context, userIDs []uuid.UUID, vehicleType string, forDelivery bool) ([]models.Driver, error)
	UpdateLocation(ctx context.Context, userID uuid.UUID, latitude, longitude float64) error
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error
	Assign(ctx context.Context, userID, rideID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID) error
	CreditEarnings(ctx context.Context, userID uuid.UUID, amount float64) error
}

// EventPublisher publishes domain events; nil-safe via the service guard.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}

type storedLocation struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Service maintains the driver directory: live positions in the Redis geo
// index and operating profiles in Postgres.
type Service struct {
	repo   ProfileStore
	redis  redisclient.ClientInterface
	events EventPublisher
}

// NewService creates a driver directory service.
func NewService(repo ProfileStore, redis redisclient.ClientInterface, events EventPublisher) *Service {
	return &Service{repo: repo, redis: redis, events: events}
}

// GetProfile returns the driver profile for a user.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// UpdateLocation records a driver's reported position in both stores. The
// keyed location record doubles as a heartbeat: it expires after five
// minutes, and FindNearby drops geo index members whose heartbeat is gone.
func (s *Service) UpdateLocation(ctx context.Context, userID uuid.UUID, latitude, longitude float64) error {
	if err := s.repo.UpdateLocation(ctx, userID, latitude, longitude); err != nil {
		return err
	}

	if err := s.redis.GeoAdd(ctx, driverGeoIndexKey, longitude, latitude, userID.String()); err != nil {
		return fmt.Errorf("failed to index driver location: %w", err)
	}

	loc := storedLocation{
		DriverID:  userID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	key := driverLocationPrefix + userID.String()
	if err := s.redis.SetWithExpiration(ctx, key, data, driverLocationTTL); err != nil {
		return fmt.Errorf("failed to store driver location: %w", err)
	}

	s.publish(ctx, eventbus.SubjectDriverLocationUpdated, eventbus.DriverLocationUpdatedData{
		DriverID:  userID,
		Latitude:  latitude,
		Longitude: longitude,
		Timestamp: loc.Timestamp,
	})

	return nil
}

// SetAvailability toggles a driver's availability. Going offline removes the
// driver from the geo index immediately.
func (s *Service) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	if err := s.repo.SetAvailability(ctx, userID, available); err != nil {
		return err
	}

	if !available {
		if err := s.redis.GeoRemove(ctx, driverGeoIndexKey, userID.String()); err != nil {
			logger.WarnContext(ctx, "failed to remove driver from geo index",
				zap.String("driver_id", userID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// FindNearby returns eligible drivers within the radius, nearest first. Any
// failure along the way degrades to an empty result; a proximity query must
// never fail a ride request.
func (s *Service) FindNearby(ctx context.Context, latitude, longitude, radiusMeters float64, vehicleType string, forDelivery bool, limit int) []models.NearbyDriver {
	start := time.Now()
	defer func() {
		metrics.DriverSearchDuration.Observe(time.Since(start).Seconds())
	}()

	if limit <= 0 {
		limit = 10
	}

	members, err := s.redis.GeoRadius(ctx, driverGeoIndexKey, longitude, latitude, radiusMeters/1000, limit*candidateOverfetch)
	if err != nil {
		logger.WarnContext(ctx, "geo radius query failed", zap.Error(err))
		metrics.DriverCandidatesFound.Observe(0)
		return []models.NearbyDriver{}
	}
	if len(members) == 0 {
		metrics.DriverCandidatesFound.Observe(0)
		return []models.NearbyDriver{}
	}

	ids := make([]uuid.UUID, 0, len(members))
	distances := make(map[uuid.UUID]float64, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m.Name)
		if err != nil {
			continue
		}
		fresh, err := s.redis.Exists(ctx, driverLocationPrefix+m.Name)
		if err == nil && !fresh {
			// Heartbeat expired: the driver stopped reporting, evict them
			// from the index so it does not accumulate dead members.
			if remErr := s.redis.GeoRemove(ctx, driverGeoIndexKey, m.Name); remErr != nil {
				logger.WarnContext(ctx, "failed to evict stale driver from geo index",
					zap.String("driver_id", m.Name),
					zap.Error(remErr),
				)
			}
			continue
		}
		ids = append(ids, id)
		distances[id] = m.DistanceKm * 1000
	}

	eligible, err := s.repo.GetEligible(ctx, ids, vehicleType, forDelivery)
	if err != nil {
		logger.WarnContext(ctx, "eligible driver lookup failed", zap.Error(err))
		metrics.DriverCandidatesFound.Observe(0)
		return []models.NearbyDriver{}
	}

	byID := make(map[uuid.UUID]models.Driver, len(eligible))
	for _, d := range eligible {
		byID[d.UserID] = d
	}

	// Preserve the geo index ordering (nearest first).
	result := make([]models.NearbyDriver, 0, limit)
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			continue
		}
		result = append(result, models.NearbyDriver{
			Driver:         d,
			DistanceMeters: distances[id],
		})
		if len(result) == limit {
			break
		}
	}

	metrics.DriverCandidatesFound.Observe(float64(len(result)))
	return result
}

// Assign marks a driver busy on a ride.
func (s *Service) Assign(ctx context.Context, userID, rideID uuid.UUID) error {
	return s.repo.Assign(ctx, userID, rideID)
}

// Release frees a driver after a ride reaches a terminal state.
func (s *Service) Release(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Release(ctx, userID)
}

// CreditEarnings credits the driver's share of a completed fare.
func (s *Service) CreditEarnings(ctx context.Context, userID uuid.UUID, amount float64) error {
	return s.repo.CreditEarnings(ctx, userID, amount)
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	event, err := eventbus.NewEvent(subject, "drivers", data)
	if err != nil {
		return
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		metrics.EventPublishFailuresTotal.WithLabelValues(subject).Inc()
		logger.WarnContext(ctx, "failed to publish event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
