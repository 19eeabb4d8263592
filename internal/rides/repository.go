package rides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

// Repository handles database operations for rides
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new rides repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const rideColumns = `
	id, passenger_id, driver_id, status,
	pickup_address, pickup_latitude, pickup_longitude,
	dropoff_address, dropoff_latitude, dropoff_longitude,
	vehicle_type, passenger_count, notes,
	fare_base, fare_distance, fare_time, fare_total,
	distance_meters, duration_seconds, route_polyline, route_steps,
	payment_method, payment_status, transaction_id, receipt_url,
	scheduled_at, requested_at, accepted_at, arrived_at,
	pickup_at, dropoff_at, cancelled_at, cancelled_by, cancellation_reason,
	passenger_rating, passenger_comment, passenger_rated_at,
	driver_rating, driver_comment, driver_rated_at,
	created_at, updated_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	ride := &models.Ride{}
	var routeSteps []byte
	err := row.Scan(
		&ride.ID,
		&ride.PassengerID,
		&ride.DriverID,
		&ride.Status,
		&ride.PickupAddress,
		&ride.PickupLatitude,
		&ride.PickupLongitude,
		&ride.DropoffAddress,
		&ride.DropoffLatitude,
		&ride.DropoffLongitude,
		&ride.VehicleType,
		&ride.PassengerCount,
		&ride.Notes,
		&ride.Fare.Base,
		&ride.Fare.Distance,
		&ride.Fare.Time,
		&ride.Fare.Total,
		&ride.DistanceMeters,
		&ride.DurationSeconds,
		&ride.RoutePolyline,
		&routeSteps,
		&ride.PaymentMethod,
		&ride.PaymentStatus,
		&ride.TransactionID,
		&ride.ReceiptURL,
		&ride.ScheduledAt,
		&ride.RequestedAt,
		&ride.AcceptedAt,
		&ride.ArrivedAt,
		&ride.PickupAt,
		&ride.DropoffAt,
		&ride.CancelledAt,
		&ride.CancelledBy,
		&ride.CancellationReason,
		&ride.PassengerRating,
		&ride.PassengerComment,
		&ride.PassengerRatedAt,
		&ride.DriverRating,
		&ride.DriverComment,
		&ride.DriverRatedAt,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(routeSteps) > 0 {
		if err := json.Unmarshal(routeSteps, &ride.RouteSteps); err != nil {
			return nil, fmt.Errorf("failed to decode route steps: %w", err)
		}
	}
	return ride, nil
}

// Create persists a new ride
func (r *Repository) Create(ctx context.Context, ride *models.Ride) error {
	var routeSteps []byte
	if len(ride.RouteSteps) > 0 {
		var err error
		routeSteps, err = json.Marshal(ride.RouteSteps)
		if err != nil {
			return fmt.Errorf("failed to encode route steps: %w", err)
		}
	}

	query := `
		INSERT INTO rides (
			id, passenger_id, status,
			pickup_address, pickup_latitude, pickup_longitude,
			dropoff_address, dropoff_latitude, dropoff_longitude,
			vehicle_type, passenger_count, notes,
			fare_base, fare_distance, fare_time, fare_total,
			distance_meters, duration_seconds, route_polyline, route_steps,
			payment_method, payment_status, scheduled_at, requested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		ride.ID,
		ride.PassengerID,
		ride.Status,
		ride.PickupAddress,
		ride.PickupLatitude,
		ride.PickupLongitude,
		ride.DropoffAddress,
		ride.DropoffLatitude,
		ride.DropoffLongitude,
		ride.VehicleType,
		ride.PassengerCount,
		ride.Notes,
		ride.Fare.Base,
		ride.Fare.Distance,
		ride.Fare.Time,
		ride.Fare.Total,
		ride.DistanceMeters,
		ride.DurationSeconds,
		ride.RoutePolyline,
		routeSteps,
		ride.PaymentMethod,
		ride.PaymentStatus,
		ride.ScheduledAt,
		ride.RequestedAt,
	).Scan(&ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

// GetByID retrieves a ride by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	ride, err := scanRide(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("ride not found", nil)
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}

// AtomicAccept transitions a ride from searching to accepted in a single
// guarded UPDATE. The WHERE clause on status makes concurrent accepts race
// safely: exactly one driver's update matches a row.
func (r *Repository) AtomicAccept(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, driver_id = $2, accepted_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	tag, err := r.db.Exec(ctx, query,
		models.RideStatusAccepted, driverID, at, rideID, models.RideStatusSearching,
	)
	if err != nil {
		return false, fmt.Errorf("failed to accept ride: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RevertToSearching rolls an accepted ride back to searching, clearing the
// driver assignment.
func (r *Repository) RevertToSearching(ctx context.Context, rideID uuid.UUID) error {
	query := `
		UPDATE rides
		SET status = $1, driver_id = NULL, accepted_at = NULL, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	if _, err := r.db.Exec(ctx, query, models.RideStatusSearching, rideID, models.RideStatusAccepted); err != nil {
		return fmt.Errorf("failed to revert ride: %w", err)
	}
	return nil
}

// MarkNoDriver records that the search exhausted without a match.
func (r *Repository) MarkNoDriver(ctx context.Context, rideID uuid.UUID) error {
	return r.setStatus(ctx, rideID, models.RideStatusNoDriver, models.RideStatusSearching)
}

// MarkArrived records the driver reaching the pickup point.
func (r *Repository) MarkArrived(ctx context.Context, rideID uuid.UUID, at time.Time) error {
	query := `
		UPDATE rides SET status = $1, arrived_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, models.RideStatusArrived, at, rideID, models.RideStatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to mark ride arrived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("ride state changed concurrently")
	}
	return nil
}

// MarkStarted records pickup.
func (r *Repository) MarkStarted(ctx context.Context, rideID uuid.UUID, at time.Time) error {
	query := `
		UPDATE rides SET status = $1, pickup_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, models.RideStatusInProgress, at, rideID, models.RideStatusArrived)
	if err != nil {
		return fmt.Errorf("failed to mark ride started: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("ride state changed concurrently")
	}
	return nil
}

// MarkCompleted records dropoff and the settlement outcome.
func (r *Repository) MarkCompleted(ctx context.Context, rideID uuid.UUID, at time.Time, paymentStatus string, transactionID, receiptURL *string) error {
	query := `
		UPDATE rides
		SET status = $1, dropoff_at = $2, updated_at = $2,
		    payment_status = $3, transaction_id = $4, receipt_url = $5
		WHERE id = $6 AND status = $7
	`
	tag, err := r.db.Exec(ctx, query,
		models.RideStatusCompleted, at, paymentStatus, transactionID, receiptURL,
		rideID, models.RideStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to mark ride completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("ride state changed concurrently")
	}
	return nil
}

// MarkCancelled records cancellation from any non-terminal state.
func (r *Repository) MarkCancelled(ctx context.Context, rideID uuid.UUID, at time.Time, by models.CancelledBy, reason string) error {
	query := `
		UPDATE rides
		SET status = $1, cancelled_at = $2, updated_at = $2,
		    cancelled_by = $3, cancellation_reason = $4
		WHERE id = $5 AND status = ANY($6)
	`
	cancellable := []models.RideStatus{
		models.RideStatusRequested,
		models.RideStatusSearching,
		models.RideStatusScheduled,
		models.RideStatusAccepted,
		models.RideStatusArrived,
		models.RideStatusInProgress,
	}

	tag, err := r.db.Exec(ctx, query, models.RideStatusCancelled, at, by, reason, rideID, cancellable)
	if err != nil {
		return fmt.Errorf("failed to cancel ride: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("ride state changed concurrently")
	}
	return nil
}

// SetRating writes one rating slot, guarded so the slot is written at most
// once. Reports false when the slot already holds a rating.
func (r *Repository) SetRating(ctx context.Context, rideID uuid.UUID, slot RatingSlot, rating int, comment *string, at time.Time) (bool, error) {
	var query string
	switch slot {
	case RatingSlotPassenger:
		query = `
			UPDATE rides
			SET passenger_rating = $1, passenger_comment = $2, passenger_rated_at = $3, updated_at = $3
			WHERE id = $4 AND passenger_rating IS NULL
		`
	case RatingSlotDriver:
		query = `
			UPDATE rides
			SET driver_rating = $1, driver_comment = $2, driver_rated_at = $3, updated_at = $3
			WHERE id = $4 AND driver_rating IS NULL
		`
	default:
		return false, fmt.Errorf("unknown rating slot %q", slot)
	}

	tag, err := r.db.Exec(ctx, query, rating, comment, at, rideID)
	if err != nil {
		return false, fmt.Errorf("failed to set rating: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByPassenger returns a passenger's rides, newest first.
func (r *Repository) ListByPassenger(ctx context.Context, passengerID uuid.UUID, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error) {
	return r.list(ctx, "passenger_id", passengerID, status, params)
}

// ListByDriver returns a driver's rides, newest first.
func (r *Repository) ListByDriver(ctx context.Context, driverID uuid.UUID, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error) {
	return r.list(ctx, "driver_id", driverID, status, params)
}

func (r *Repository) list(ctx context.Context, column string, userID uuid.UUID, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error) {
	where := fmt.Sprintf("%s = $1", column)
	args := []interface{}{userID}
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM rides WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM rides
		WHERE %s
		ORDER BY requested_at DESC
		LIMIT $%d OFFSET $%d
	`, rideColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	defer rows.Close()

	rides := []models.Ride{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan ride: %w", err)
		}
		rides = append(rides, *ride)
	}
	return rides, total, rows.Err()
}

func (r *Repository) setStatus(ctx context.Context, rideID uuid.UUID, to, from models.RideStatus) error {
	query := `UPDATE rides SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := r.db.Exec(ctx, query, to, rideID, from)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewConflictError("ride state changed concurrently")
	}
	return nil
}
