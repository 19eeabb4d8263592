package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// RideRequestedData is emitted when a passenger requests a ride.
type RideRequestedData struct {
	RideID           uuid.UUID `json:"ride_id"`
	PassengerID      uuid.UUID `json:"passenger_id"`
	PickupLatitude   float64   `json:"pickup_latitude"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	PickupAddress    string    `json:"pickup_address"`
	DropoffLatitude  float64   `json:"dropoff_latitude"`
	DropoffLongitude float64   `json:"dropoff_longitude"`
	DropoffAddress   string    `json:"dropoff_address"`
	VehicleType      string    `json:"vehicle_type"`
	EstimatedFare    float64   `json:"estimated_fare"`
	RequestedAt      time.Time `json:"requested_at"`
}

// RideScheduledData is emitted when a future-dated ride is recorded.
type RideScheduledData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// RideUnmatchedData is emitted when no driver could be found for a request.
type RideUnmatchedData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	VehicleType string    `json:"vehicle_type"`
	SearchedAt  time.Time `json:"searched_at"`
}

// RideAcceptedData is emitted when a driver accepts a ride.
type RideAcceptedData struct {
	RideID           uuid.UUID `json:"ride_id"`
	PassengerID      uuid.UUID `json:"passenger_id"`
	DriverID         uuid.UUID `json:"driver_id"`
	PickupLatitude   float64   `json:"pickup_latitude"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	DropoffLatitude  float64   `json:"dropoff_latitude"`
	DropoffLongitude float64   `json:"dropoff_longitude"`
	AcceptedAt       time.Time `json:"accepted_at"`
}

// RideArrivedData is emitted when the driver reaches the pickup point.
type RideArrivedData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	DriverID    uuid.UUID `json:"driver_id"`
	ArrivedAt   time.Time `json:"arrived_at"`
}

// RideStartedData is emitted when a ride begins.
type RideStartedData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	DriverID    uuid.UUID `json:"driver_id"`
	StartedAt   time.Time `json:"started_at"`
}

// RideCompletedData is emitted when a ride finishes.
type RideCompletedData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	DriverID    uuid.UUID `json:"driver_id"`
	FareTotal   float64   `json:"fare_total"`
	DistanceKm  float64   `json:"distance_km"`
	CompletedAt time.Time `json:"completed_at"`
}

// RideCancelledData is emitted when a ride is cancelled.
type RideCancelledData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	DriverID    uuid.UUID `json:"driver_id"` // zero when not yet assigned
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PaymentProcessedData is emitted after successful settlement.
type PaymentProcessedData struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	DriverID    uuid.UUID `json:"driver_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	ProcessedAt time.Time `json:"processed_at"`
}

// PaymentFailedData is emitted when settlement fails.
type PaymentFailedData struct {
	RideID      uuid.UUID `json:"ride_id"`
	PassengerID uuid.UUID `json:"passenger_id"`
	Amount      float64   `json:"amount"`
	Error       string    `json:"error"`
	FailedAt    time.Time `json:"failed_at"`
}

// DriverLocationUpdatedData is emitted when a driver reports a new position.
type DriverLocationUpdatedData struct {
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}
