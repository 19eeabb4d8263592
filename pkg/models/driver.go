package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverStatus represents the approval state of a driver profile
type DriverStatus string

const (
	DriverStatusPending   DriverStatus = "pending"
	DriverStatusApproved  DriverStatus = "approved"
	DriverStatusRejected  DriverStatus = "rejected"
	DriverStatusSuspended DriverStatus = "suspended"
)

// Driver represents a driver's operating profile, distinct from their User
// identity. Keyed 1:1 by the owning user.
//
// Invariant: IsAvailable is false whenever CurrentRideID is set; both fields
// are reset together on ride completion or cancellation.
type Driver struct {
	UserID      uuid.UUID    `json:"user_id" db:"user_id"`
	Status      DriverStatus `json:"status" db:"status"`
	IsVerified  bool         `json:"is_verified" db:"is_verified"`
	IsAvailable bool         `json:"is_available" db:"is_available"`

	// Owner identity, joined from users on profile reads.
	FirstName   string  `json:"first_name,omitempty"`
	LastName    string  `json:"last_name,omitempty"`
	PhoneNumber string  `json:"phone_number,omitempty"`
	Rating      float64 `json:"rating,omitempty"`

	CurrentRideID    *uuid.UUID `json:"current_ride_id,omitempty" db:"current_ride_id"`
	CurrentLatitude  *float64   `json:"current_latitude,omitempty" db:"current_latitude"`
	CurrentLongitude *float64   `json:"current_longitude,omitempty" db:"current_longitude"`

	VehicleType       string  `json:"vehicle_type" db:"vehicle_type"`
	VehicleMake       string  `json:"vehicle_make" db:"vehicle_make"`
	VehicleModel      string  `json:"vehicle_model" db:"vehicle_model"`
	VehicleYear       int     `json:"vehicle_year" db:"vehicle_year"`
	VehicleColor      string  `json:"vehicle_color" db:"vehicle_color"`
	VehiclePlate      string  `json:"vehicle_plate" db:"vehicle_plate"`
	InsuranceNumber   *string `json:"insurance_number,omitempty" db:"insurance_number"`
	AcceptsDeliveries bool    `json:"accepts_deliveries" db:"accepts_deliveries"`

	Balance        float64 `json:"balance" db:"balance"`
	CompletedRides int     `json:"completed_rides" db:"completed_rides"`

	LastLocationUpdate *time.Time `json:"last_location_update,omitempty" db:"last_location_update"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the driver's display name.
func (d *Driver) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// CanAcceptRides reports whether the driver is eligible to be offered or to
// accept a ride.
func (d *Driver) CanAcceptRides() bool {
	return d.Status == DriverStatusApproved && d.IsVerified && d.IsAvailable
}

// NearbyDriver is a proximity query result from the driver directory,
// ordered nearest first.
type NearbyDriver struct {
	Driver
	DistanceMeters float64 `json:"distance_meters"`
}

// LocationUpdateRequest updates a driver's live position
type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// AvailabilityRequest toggles a driver's availability
type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
