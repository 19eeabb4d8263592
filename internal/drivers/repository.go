package drivers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/models"
)

// Repository handles database operations for driver profiles
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new drivers repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const driverColumns = `
	user_id, status, is_verified, is_available, current_ride_id,
	current_latitude, current_longitude, vehicle_type, vehicle_make,
	vehicle_model, vehicle_year, vehicle_color, vehicle_plate,
	insurance_number, accepts_deliveries, balance, completed_rides,
	last_location_update, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	d := &models.Driver{}
	err := row.Scan(
		&d.UserID,
		&d.Status,
		&d.IsVerified,
		&d.IsAvailable,
		&d.CurrentRideID,
		&d.CurrentLatitude,
		&d.CurrentLongitude,
		&d.VehicleType,
		&d.VehicleMake,
		&d.VehicleModel,
		&d.VehicleYear,
		&d.VehicleColor,
		&d.VehiclePlate,
		&d.InsuranceNumber,
		&d.AcceptsDeliveries,
		&d.Balance,
		&d.CompletedRides,
		&d.LastLocationUpdate,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetByUserID retrieves a driver profile by the owning user's ID. The owner's
// name, phone and rating are joined in from users.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Driver, error) {
	query := `
		SELECT d.user_id, d.status, d.is_verified, d.is_available, d.current_ride_id,
		       d.current_latitude, d.current_longitude, d.vehicle_type, d.vehicle_make,
		       d.vehicle_model, d.vehicle_year, d.vehicle_color, d.vehicle_plate,
		       d.insurance_number, d.accepts_deliveries, d.balance, d.completed_rides,
		       d.last_location_update, d.created_at, d.updated_at,
		       u.first_name, u.last_name, u.phone_number, u.rating
		FROM drivers d
		JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1
	`

	d := &models.Driver{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&d.UserID,
		&d.Status,
		&d.IsVerified,
		&d.IsAvailable,
		&d.CurrentRideID,
		&d.CurrentLatitude,
		&d.CurrentLongitude,
		&d.VehicleType,
		&d.VehicleMake,
		&d.VehicleModel,
		&d.VehicleYear,
		&d.VehicleColor,
		&d.VehiclePlate,
		&d.InsuranceNumber,
		&d.AcceptsDeliveries,
		&d.Balance,
		&d.CompletedRides,
		&d.LastLocationUpdate,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.FirstName,
		&d.LastName,
		&d.PhoneNumber,
		&d.Rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("driver not found", nil)
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return d, nil
}

// GetEligible returns the subset of the given drivers that can currently
// accept the described ride: approved, verified, available, matching vehicle
// type and, when requested, accepting deliveries.
func (r *Repository) GetEligible(ctx context.Context, userIDs []uuid.UUID, vehicleType string, forDelivery bool) ([]models.Driver, error) {
	if len(userIDs) == 0 {
		return []models.Driver{}, nil
	}

	query := `
		SELECT ` + driverColumns + `
		FROM drivers
		WHERE user_id = ANY($1)
		  AND status = 'approved'
		  AND is_verified = TRUE
		  AND is_available = TRUE
		  AND current_ride_id IS NULL
		  AND vehicle_type = $2
		  AND ($3 = FALSE OR accepts_deliveries = TRUE)
	`

	rows, err := r.db.Query(ctx, query, userIDs, vehicleType, forDelivery)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible drivers: %w", err)
	}
	defer rows.Close()

	drivers := []models.Driver{}
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, *d)
	}
	return drivers, rows.Err()
}

// UpdateLocation persists the driver's last reported position
func (r *Repository) UpdateLocation(ctx context.Context, userID uuid.UUID, latitude, longitude float64) error {
	query := `
		UPDATE drivers
		SET current_latitude = $2, current_longitude = $3,
		    last_location_update = $4, updated_at = $4
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID, latitude, longitude, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update driver location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("driver not found", nil)
	}
	return nil
}

// SetAvailability toggles whether the driver is accepting new rides. Drivers
// with an active ride cannot flip themselves available.
func (r *Repository) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	query := `
		UPDATE drivers
		SET is_available = $2, updated_at = NOW()
		WHERE user_id = $1 AND ($2 = FALSE OR current_ride_id IS NULL)
	`

	tag, err := r.db.Exec(ctx, query, userID, available)
	if err != nil {
		return fmt.Errorf("failed to set driver availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("driver has an active ride")
	}
	return nil
}

// Assign marks the driver as busy on the given ride. The update is
// conditional on the driver still being free.
func (r *Repository) Assign(ctx context.Context, userID, rideID uuid.UUID) error {
	query := `
		UPDATE drivers
		SET current_ride_id = $2, is_available = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND current_ride_id IS NULL
	`

	tag, err := r.db.Exec(ctx, query, userID, rideID)
	if err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("driver is no longer available")
	}
	return nil
}

// Release frees the driver after ride completion or cancellation.
func (r *Repository) Release(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE drivers
		SET current_ride_id = NULL, is_available = TRUE, updated_at = NOW()
		WHERE user_id = $1
	`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to release driver: %w", err)
	}
	return nil
}

// CreditEarnings adds the driver's share of a fare to their balance and
// increments the completed ride counter.
func (r *Repository) CreditEarnings(ctx context.Context, userID uuid.UUID, amount float64) error {
	query := `
		UPDATE drivers
		SET balance = balance + $2, completed_rides = completed_rides + 1,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit driver earnings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("driver not found", nil)
	}
	return nil
}
