package rides

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gurbanow/rideline/internal/maps"
	"github.com/gurbanow/rideline/internal/payments"
	"github.com/gurbanow/rideline/pkg/eventbus"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

// RatingSlot identifies which of a ride's two rating slots is being written.
type RatingSlot string

const (
	RatingSlotPassenger RatingSlot = "passenger"
	RatingSlotDriver    RatingSlot = "driver"
)

// RideStore is the persistence surface of the ride engine.
type RideStore interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)

	// AtomicAccept transitions a ride from searching to accepted in a single
	// guarded update. It reports false when another driver won the race.
	AtomicAccept(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error)

	// RevertToSearching undoes a half-finished accept after the driver
	// assignment failed.
	RevertToSearching(ctx context.Context, rideID uuid.UUID) error

	MarkNoDriver(ctx context.Context, rideID uuid.UUID) error
	MarkArrived(ctx context.Context, rideID uuid.UUID, at time.Time) error
	MarkStarted(ctx context.Context, rideID uuid.UUID, at time.Time) error
	MarkCompleted(ctx context.Context, rideID uuid.UUID, at time.Time, paymentStatus string, transactionID, receiptURL *string) error
	MarkCancelled(ctx context.Context, rideID uuid.UUID, at time.Time, by models.CancelledBy, reason string) error

	// SetRating writes one rating slot at most once. It reports false when
	// the slot was already written.
	SetRating(ctx context.Context, rideID uuid.UUID, slot RatingSlot, rating int, comment *string, at time.Time) (bool, error)

	// List methods filter by status when one is given; an empty status
	// returns every ride for the party.
	ListByPassenger(ctx context.Context, passengerID uuid.UUID, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error)
}

// DriverDirectory exposes the driver operations the engine needs.
type DriverDirectory interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Driver, error)
	FindNearby(ctx context.Context, latitude, longitude, radiusMeters float64, vehicleType string, forDelivery bool, limit int) []models.NearbyDriver
	Assign(ctx context.Context, userID, rideID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID) error
	CreditEarnings(ctx context.Context, userID uuid.UUID, amount float64) error
}

// Notifier is the notification sink.
type Notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest) (*models.Notification, error)
}

// PaymentProcessor settles completed rides.
type PaymentProcessor interface {
	Settle(ctx context.Context, ride *models.Ride) (*payments.SettlementResult, error)
}

// RatingApplier folds a rating into a user's running average.
type RatingApplier interface {
	Apply(ctx context.Context, userID uuid.UUID, rating int) error
}

// RouteProvider computes driving routes.
type RouteProvider interface {
	GetRoute(ctx context.Context, origin, destination maps.Coordinate) (*maps.Route, error)
}

// FareQuoter prices a route for a vehicle type.
type FareQuoter interface {
	Quote(vehicleType string, distanceMeters, durationSeconds int) models.Fare
	Normalize(vehicleType string) string
}

// EventPublisher publishes domain events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *eventbus.Event) error
}
