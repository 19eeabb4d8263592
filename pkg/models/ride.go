package models

import (
	"time"

	"github.com/google/uuid"
)

// RideStatus represents the status of a ride
type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"
	RideStatusSearching  RideStatus = "searching"
	RideStatusScheduled  RideStatus = "scheduled"
	RideStatusNoDriver   RideStatus = "no_driver"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusArrived    RideStatus = "arrived"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// IsTerminal reports whether a ride in this status can no longer transition.
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled || s == RideStatusNoDriver
}

// CancelledBy identifies which party cancelled a ride.
type CancelledBy string

const (
	CancelledByPassenger CancelledBy = "passenger"
	CancelledByDriver    CancelledBy = "driver"
)

// RouteStep is one leg of the computed route, as returned by the maps provider.
type RouteStep struct {
	DistanceMeters int     `json:"distance_meters"`
	DurationSecs   int     `json:"duration_seconds"`
	Instructions   string  `json:"instructions"`
	StartLatitude  float64 `json:"start_latitude"`
	StartLongitude float64 `json:"start_longitude"`
	EndLatitude    float64 `json:"end_latitude"`
	EndLongitude   float64 `json:"end_longitude"`
	Polyline       string  `json:"polyline,omitempty"`
}

// Fare breaks a quoted price into its components. Total is authoritative and
// fixed at ride creation; it is never recomputed.
type Fare struct {
	Base     float64 `json:"base" db:"fare_base"`
	Distance float64 `json:"distance" db:"fare_distance"`
	Time     float64 `json:"time" db:"fare_time"`
	Total    float64 `json:"total" db:"fare_total"`
}

// Ride represents one transportation request from creation to terminal state.
type Ride struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PassengerID uuid.UUID  `json:"passenger_id" db:"passenger_id"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty" db:"driver_id"`
	Status      RideStatus `json:"status" db:"status"`

	PickupAddress    string  `json:"pickup_address" db:"pickup_address"`
	PickupLatitude   float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude" db:"pickup_longitude"`
	DropoffAddress   string  `json:"dropoff_address" db:"dropoff_address"`
	DropoffLatitude  float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" db:"dropoff_longitude"`

	VehicleType    string  `json:"vehicle_type" db:"vehicle_type"`
	PassengerCount int     `json:"passenger_count" db:"passenger_count"`
	Notes          *string `json:"notes,omitempty" db:"notes"`

	Fare            Fare        `json:"fare"`
	DistanceMeters  int         `json:"distance_meters" db:"distance_meters"`
	DurationSeconds int         `json:"duration_seconds" db:"duration_seconds"`
	RoutePolyline   *string     `json:"route_polyline,omitempty" db:"route_polyline"`
	RouteSteps      []RouteStep `json:"route_steps,omitempty" db:"route_steps"`

	PaymentMethod string  `json:"payment_method" db:"payment_method"`
	PaymentStatus string  `json:"payment_status" db:"payment_status"`
	TransactionID *string `json:"transaction_id,omitempty" db:"transaction_id"`
	ReceiptURL    *string `json:"receipt_url,omitempty" db:"receipt_url"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	RequestedAt time.Time  `json:"requested_at" db:"requested_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	ArrivedAt   *time.Time `json:"arrived_at,omitempty" db:"arrived_at"`
	PickupAt    *time.Time `json:"pickup_at,omitempty" db:"pickup_at"`
	DropoffAt   *time.Time `json:"dropoff_at,omitempty" db:"dropoff_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`

	CancelledBy        *CancelledBy `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason *string      `json:"cancellation_reason,omitempty" db:"cancellation_reason"`

	// Rating slots are independent: the passenger rates the driver and the
	// driver rates the passenger. Each slot is settable at most once.
	PassengerRating    *int       `json:"passenger_rating,omitempty" db:"passenger_rating"`
	PassengerComment   *string    `json:"passenger_comment,omitempty" db:"passenger_comment"`
	PassengerRatedAt   *time.Time `json:"passenger_rated_at,omitempty" db:"passenger_rated_at"`
	DriverRating       *int       `json:"driver_rating,omitempty" db:"driver_rating"`
	DriverComment      *string    `json:"driver_comment,omitempty" db:"driver_comment"`
	DriverRatedAt      *time.Time `json:"driver_rated_at,omitempty" db:"driver_rated_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RideRequest represents a ride request from a passenger
type RideRequest struct {
	PickupAddress    string     `json:"pickup_address" binding:"required"`
	PickupLatitude   float64    `json:"pickup_latitude" binding:"required"`
	PickupLongitude  float64    `json:"pickup_longitude" binding:"required"`
	DropoffAddress   string     `json:"dropoff_address" binding:"required"`
	DropoffLatitude  float64    `json:"dropoff_latitude" binding:"required"`
	DropoffLongitude float64    `json:"dropoff_longitude" binding:"required"`
	VehicleType      string     `json:"vehicle_type,omitempty"`
	PassengerCount   int        `json:"passenger_count,omitempty" binding:"omitempty,min=1,max=6"`
	PaymentMethod    string     `json:"payment_method,omitempty" binding:"omitempty,oneof=card wallet cash"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// RideRatingRequest represents a request to rate a completed ride
type RideRatingRequest struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// CancelRideRequest carries an optional cancellation reason
type CancelRideRequest struct {
	Reason string `json:"reason,omitempty"`
}
