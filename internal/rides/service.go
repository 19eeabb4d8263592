package rides

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurbanow/rideline/internal/maps"
	"github.com/gurbanow/rideline/internal/payments"
	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/eventbus"
	"github.com/gurbanow/rideline/pkg/geo"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/metrics"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
	"github.com/gurbanow/rideline/pkg/tracing"
)

const (
	tracerName = "rides"

	// maxCandidates caps the proximity search, so it also bounds the
	// candidates_found count a request response reports.
	maxCandidates = 10

	defaultCancellationReason = "no reason provided"
)

// Service implements the ride lifecycle: request, match, accept, pickup,
// completion, cancellation and mutual rating.
type Service struct {
	store    RideStore
	drivers  DriverDirectory
	notifier Notifier
	payments PaymentProcessor
	ratings  RatingApplier
	router   RouteProvider
	quoter   FareQuoter
	events   EventPublisher
	cfg      config.EngineConfig
}

// NewService creates a new rides service
func NewService(
	store RideStore,
	drivers DriverDirectory,
	notifier Notifier,
	payments PaymentProcessor,
	ratings RatingApplier,
	router RouteProvider,
	quoter FareQuoter,
	events EventPublisher,
	cfg config.EngineConfig,
) *Service {
	return &Service{
		store:    store,
		drivers:  drivers,
		notifier: notifier,
		payments: payments,
		ratings:  ratings,
		router:   router,
		quoter:   quoter,
		events:   events,
		cfg:      cfg,
	}
}

// RequestOutcome is the result of a ride request: the persisted ride plus
// what happened to it synchronously.
type RequestOutcome struct {
	Ride               *models.Ride
	Matched            bool
	Scheduled          bool
	CandidatesFound    int
	CandidatesNotified int
}

// RequestRide creates a ride and either schedules it for later or searches
// for nearby drivers immediately. The fare is quoted once here and never
// recomputed.
func (s *Service) RequestRide(ctx context.Context, passengerID uuid.UUID, req *models.RideRequest) (*RequestOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RequestRide")
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.PassengerIDKey.String(passengerID.String()))

	now := time.Now().UTC()

	vehicleType := s.quoter.Normalize(req.VehicleType)
	tracing.AddSpanAttributes(ctx, tracing.VehicleTypeKey.String(vehicleType))

	passengerCount := req.PassengerCount
	if passengerCount == 0 {
		passengerCount = 1
	}
	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCard
	}

	scheduled := req.ScheduledAt != nil
	if scheduled && !req.ScheduledAt.After(now) {
		return nil, common.NewBadRequestError("scheduled time must be in the future", nil)
	}

	route, err := s.router.GetRoute(ctx,
		maps.Coordinate{Latitude: req.PickupLatitude, Longitude: req.PickupLongitude},
		maps.Coordinate{Latitude: req.DropoffLatitude, Longitude: req.DropoffLongitude},
	)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, common.NewInternalErrorWithError("failed to compute route", err)
	}

	fare := s.quoter.Quote(vehicleType, route.DistanceMeters, route.DurationSeconds)
	tracing.AddSpanAttributes(ctx, tracing.FareAmountKey.Float64(fare.Total))

	ride := &models.Ride{
		ID:               uuid.New(),
		PassengerID:      passengerID,
		Status:           models.RideStatusSearching,
		PickupAddress:    req.PickupAddress,
		PickupLatitude:   req.PickupLatitude,
		PickupLongitude:  req.PickupLongitude,
		DropoffAddress:   req.DropoffAddress,
		DropoffLatitude:  req.DropoffLatitude,
		DropoffLongitude: req.DropoffLongitude,
		VehicleType:      vehicleType,
		PassengerCount:   passengerCount,
		Notes:            req.Notes,
		Fare:             fare,
		DistanceMeters:   route.DistanceMeters,
		DurationSeconds:  route.DurationSeconds,
		PaymentMethod:    paymentMethod,
		PaymentStatus:    models.PaymentStatusPending,
		ScheduledAt:      req.ScheduledAt,
		RequestedAt:      now,
	}
	if route.Polyline != "" {
		ride.RoutePolyline = &route.Polyline
	}
	ride.RouteSteps = route.Steps
	if scheduled {
		ride.Status = models.RideStatusScheduled
	}

	if err := s.store.Create(ctx, ride); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	tracing.AddSpanAttributes(ctx, tracing.RideIDKey.String(ride.ID.String()))

	if scheduled {
		metrics.RidesRequestedTotal.WithLabelValues("scheduled").Inc()
		s.notify(ctx, models.NotificationRequest{
			UserID:    passengerID,
			Type:      models.NotificationTypeRideScheduled,
			Title:     "Ride scheduled",
			Message:   fmt.Sprintf("Your ride is scheduled for %s", req.ScheduledAt.Format(time.RFC1123)),
			Reference: rideReference(ride.ID),
		})
		s.publish(ctx, eventbus.SubjectRideScheduled, eventbus.RideScheduledData{
			RideID:      ride.ID,
			PassengerID: passengerID,
			ScheduledAt: *req.ScheduledAt,
		})
		return &RequestOutcome{Ride: ride, Scheduled: true}, nil
	}

	candidates := s.drivers.FindNearby(ctx,
		req.PickupLatitude, req.PickupLongitude,
		s.cfg.SearchRadiusMeters, vehicleType, false, maxCandidates,
	)

	if len(candidates) == 0 {
		if err := s.store.MarkNoDriver(ctx, ride.ID); err != nil {
			tracing.RecordError(ctx, err)
			return nil, err
		}
		ride.Status = models.RideStatusNoDriver
		metrics.RidesRequestedTotal.WithLabelValues("unmatched").Inc()
		metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusNoDriver)).Inc()

		s.notify(ctx, models.NotificationRequest{
			UserID:    passengerID,
			Type:      models.NotificationTypeRideNoDriver,
			Title:     "No drivers available",
			Message:   "We couldn't find a driver nearby. Please try again in a few minutes.",
			Reference: rideReference(ride.ID),
		})
		s.publish(ctx, eventbus.SubjectRideUnmatched, eventbus.RideUnmatchedData{
			RideID:      ride.ID,
			PassengerID: passengerID,
			VehicleType: vehicleType,
			SearchedAt:  now,
		})
		return &RequestOutcome{Ride: ride}, nil
	}

	notified := 0
	for _, candidate := range candidates {
		_, err := s.notifier.Notify(ctx, models.NotificationRequest{
			UserID:    candidate.UserID,
			Type:      models.NotificationTypeRideRequest,
			Title:     "New ride request",
			Message:   fmt.Sprintf("Pickup at %s, %s away", req.PickupAddress, geo.FormatDistance(int(candidate.DistanceMeters))),
			Reference: rideReference(ride.ID),
			Data: map[string]interface{}{
				"ride_id":          ride.ID.String(),
				"pickup_address":   req.PickupAddress,
				"dropoff_address":  req.DropoffAddress,
				"distance_meters":  candidate.DistanceMeters,
				"fare_total":       fare.Total,
				"vehicle_type":     vehicleType,
				"passenger_count":  passengerCount,
			},
			EmailData: map[string]interface{}{
				"PickupAddr":  req.PickupAddress,
				"DropoffAddr": req.DropoffAddress,
				"Distance":    geo.FormatDistance(int(candidate.DistanceMeters)),
				"Fare":        fmt.Sprintf("%.2f", fare.Total),
				"TripLength":  geo.FormatDistance(route.DistanceMeters),
			},
		})
		if err != nil {
			metrics.CandidateNotifyFailuresTotal.Inc()
			logger.ErrorContext(ctx, "failed to notify candidate driver",
				zap.String("ride_id", ride.ID.String()),
				zap.String("driver_id", candidate.UserID.String()),
				zap.Error(err))
			continue
		}
		notified++
	}

	metrics.RidesRequestedTotal.WithLabelValues("matched").Inc()
	s.publish(ctx, eventbus.SubjectRideRequested, eventbus.RideRequestedData{
		RideID:           ride.ID,
		PassengerID:      passengerID,
		PickupLatitude:   req.PickupLatitude,
		PickupLongitude:  req.PickupLongitude,
		PickupAddress:    req.PickupAddress,
		DropoffLatitude:  req.DropoffLatitude,
		DropoffLongitude: req.DropoffLongitude,
		DropoffAddress:   req.DropoffAddress,
		VehicleType:      vehicleType,
		EstimatedFare:    fare.Total,
		RequestedAt:      now,
	})

	return &RequestOutcome{
		Ride:               ride,
		Matched:            true,
		CandidatesFound:    len(candidates),
		CandidatesNotified: notified,
	}, nil
}

// AcceptRide assigns the ride to the driver. The store transition is a
// compare-and-set on the searching status, so out of any number of concurrent
// accepts exactly one succeeds.
func (s *Service) AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "AcceptRide")
	defer span.End()
	tracing.AddSpanAttributes(ctx,
		tracing.RideIDKey.String(rideID.String()),
		tracing.DriverIDKey.String(driverID.String()))

	profile, err := s.drivers.GetProfile(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !profile.CanAcceptRides() {
		return nil, common.NewBadRequestError("driver is not eligible to accept rides", nil)
	}

	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	won, err := s.store.AtomicAccept(ctx, rideID, driverID, now)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if !won {
		return nil, common.NewBadRequestError("ride is no longer available", nil)
	}

	if err := s.drivers.Assign(ctx, driverID, rideID); err != nil {
		if revertErr := s.store.RevertToSearching(ctx, rideID); revertErr != nil {
			logger.ErrorContext(ctx, "failed to revert ride after assignment failure",
				zap.String("ride_id", rideID.String()),
				zap.Error(revertErr))
		}
		return nil, err
	}

	ride.Status = models.RideStatusAccepted
	ride.DriverID = &driverID
	ride.AcceptedAt = &now
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusAccepted)).Inc()

	eta := ride.DurationSeconds
	if eta == 0 {
		eta = s.cfg.DefaultETASeconds
	}

	s.notify(ctx, models.NotificationRequest{
		UserID:    ride.PassengerID,
		Type:      models.NotificationTypeRideAccepted,
		Title:     "Driver on the way",
		Message:   fmt.Sprintf("%s is on the way, arriving in about %s", profile.FullName(), geo.FormatDuration(eta)),
		Reference: rideReference(rideID),
		Data: map[string]interface{}{
			"driver_id":     driverID.String(),
			"driver_name":   profile.FullName(),
			"driver_phone":  profile.PhoneNumber,
			"driver_rating": profile.Rating,
			"eta_seconds":   eta,
		},
		EmailData: map[string]interface{}{
			"DriverName":   profile.FullName(),
			"DriverPhone":  profile.PhoneNumber,
			"DriverRating": fmt.Sprintf("%.1f", profile.Rating),
			"VehicleMake":  profile.VehicleMake,
			"VehicleModel": profile.VehicleModel,
			"VehicleColor": profile.VehicleColor,
			"VehiclePlate": profile.VehiclePlate,
			"ETA":          geo.FormatDuration(eta),
		},
	})
	s.publish(ctx, eventbus.SubjectRideAccepted, eventbus.RideAcceptedData{
		RideID:           rideID,
		PassengerID:      ride.PassengerID,
		DriverID:         driverID,
		PickupLatitude:   ride.PickupLatitude,
		PickupLongitude:  ride.PickupLongitude,
		DropoffLatitude:  ride.DropoffLatitude,
		DropoffLongitude: ride.DropoffLongitude,
		AcceptedAt:       now,
	})

	return ride, nil
}

// MarkArrived records the driver reaching the pickup point.
func (s *Service) MarkArrived(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "MarkArrived")
	defer span.End()

	ride, err := s.rideForDriver(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusAccepted {
		return nil, common.NewBadRequestError(fmt.Sprintf("cannot mark arrival for a ride in status %q", ride.Status), nil)
	}

	now := time.Now().UTC()
	if err := s.store.MarkArrived(ctx, rideID, now); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusArrived
	ride.ArrivedAt = &now
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusArrived)).Inc()

	s.notify(ctx, models.NotificationRequest{
		UserID:    ride.PassengerID,
		Type:      models.NotificationTypeRideArrived,
		Title:     "Your driver has arrived",
		Message:   fmt.Sprintf("Your driver is waiting at %s", ride.PickupAddress),
		Reference: rideReference(rideID),
	})
	s.publish(ctx, eventbus.SubjectRideArrived, eventbus.RideArrivedData{
		RideID:      rideID,
		PassengerID: ride.PassengerID,
		DriverID:    driverID,
		ArrivedAt:   now,
	})

	return ride, nil
}

// StartRide records pickup and begins the trip.
func (s *Service) StartRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "StartRide")
	defer span.End()

	ride, err := s.rideForDriver(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusArrived {
		return nil, common.NewBadRequestError(fmt.Sprintf("cannot start a ride in status %q", ride.Status), nil)
	}

	now := time.Now().UTC()
	if err := s.store.MarkStarted(ctx, rideID, now); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusInProgress
	ride.PickupAt = &now
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusInProgress)).Inc()

	s.notify(ctx, models.NotificationRequest{
		UserID:    ride.PassengerID,
		Type:      models.NotificationTypeRideStarted,
		Title:     "Ride started",
		Message:   fmt.Sprintf("You're on your way to %s", ride.DropoffAddress),
		Reference: rideReference(rideID),
	})
	s.publish(ctx, eventbus.SubjectRideStarted, eventbus.RideStartedData{
		RideID:      rideID,
		PassengerID: ride.PassengerID,
		DriverID:    driverID,
		StartedAt:   now,
	})

	return ride, nil
}

// CompleteRide finishes the trip and settles payment. The ride completes even
// when the charge fails; the payment stays failed for later reconciliation.
func (s *Service) CompleteRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CompleteRide")
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.RideIDKey.String(rideID.String()))

	ride, err := s.rideForDriver(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusInProgress {
		return nil, common.NewBadRequestError(fmt.Sprintf("cannot complete a ride in status %q", ride.Status), nil)
	}

	now := time.Now().UTC()

	settlement, chargeErr := s.payments.Settle(ctx, ride)
	if settlement == nil {
		// The trip happened regardless of what the processor managed to do:
		// record a failed payment and keep completing, since aborting here
		// would strand the ride in progress and invite a double charge on
		// retry. Earnings are still owed on the quoted fare.
		tracing.RecordError(ctx, chargeErr)
		if chargeErr == nil {
			chargeErr = fmt.Errorf("settlement produced no result")
		}
		commission := math.Round(ride.Fare.Total*s.cfg.CommissionRate*100) / 100
		settlement = &payments.SettlementResult{
			Status:         models.PaymentStatusFailed,
			Commission:     commission,
			DriverEarnings: math.Round((ride.Fare.Total-commission)*100) / 100,
		}
	}
	if chargeErr != nil {
		logger.WarnContext(ctx, "payment failed, completing ride anyway",
			zap.String("ride_id", rideID.String()),
			zap.Error(chargeErr))
		s.publish(ctx, eventbus.SubjectPaymentFailed, eventbus.PaymentFailedData{
			RideID:      rideID,
			PassengerID: ride.PassengerID,
			Amount:      ride.Fare.Total,
			Error:       chargeErr.Error(),
			FailedAt:    now,
		})
	} else {
		s.publish(ctx, eventbus.SubjectPaymentProcessed, eventbus.PaymentProcessedData{
			PaymentID:   settlement.PaymentID,
			RideID:      rideID,
			PassengerID: ride.PassengerID,
			DriverID:    driverID,
			Amount:      ride.Fare.Total,
			Method:      ride.PaymentMethod,
			ProcessedAt: now,
		})
	}

	if err := s.store.MarkCompleted(ctx, rideID, now, settlement.Status, settlement.TransactionID, settlement.ReceiptURL); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusCompleted
	ride.DropoffAt = &now
	ride.PaymentStatus = settlement.Status
	ride.TransactionID = settlement.TransactionID
	ride.ReceiptURL = settlement.ReceiptURL
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusCompleted)).Inc()

	if err := s.drivers.CreditEarnings(ctx, driverID, settlement.DriverEarnings); err != nil {
		logger.ErrorContext(ctx, "failed to credit driver earnings",
			zap.String("driver_id", driverID.String()),
			zap.Float64("amount", settlement.DriverEarnings),
			zap.Error(err))
	}
	if err := s.drivers.Release(ctx, driverID); err != nil {
		logger.ErrorContext(ctx, "failed to release driver",
			zap.String("driver_id", driverID.String()),
			zap.Error(err))
	}

	distanceKm := float64(ride.DistanceMeters) / 1000
	emailData := map[string]interface{}{
		"FareTotal":   ride.Fare.Total,
		"Distance":    geo.FormatDistance(ride.DistanceMeters),
		"Duration":    geo.FormatDuration(ride.DurationSeconds),
		"PickupAddr":  ride.PickupAddress,
		"DropoffAddr": ride.DropoffAddress,
	}
	if ride.ReceiptURL != nil {
		emailData["ReceiptURL"] = *ride.ReceiptURL
	}
	s.notify(ctx, models.NotificationRequest{
		UserID:    ride.PassengerID,
		Type:      models.NotificationTypeRideCompleted,
		Title:     "Ride completed",
		Message:   fmt.Sprintf("Thanks for riding with us. Your fare was %.2f", ride.Fare.Total),
		Reference: rideReference(rideID),
		Data: map[string]interface{}{
			"fare_total":     ride.Fare.Total,
			"payment_status": ride.PaymentStatus,
		},
		EmailData: emailData,
	})
	s.publish(ctx, eventbus.SubjectRideCompleted, eventbus.RideCompletedData{
		RideID:      rideID,
		PassengerID: ride.PassengerID,
		DriverID:    driverID,
		FareTotal:   ride.Fare.Total,
		DistanceKm:  distanceKm,
		CompletedAt: now,
	})

	return ride, nil
}

// CancelRide cancels a ride on behalf of its passenger or assigned driver.
// Any non-terminal ride can be cancelled.
func (s *Service) CancelRide(ctx context.Context, rideID, userID uuid.UUID, reason string) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelRide")
	defer span.End()

	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	var by models.CancelledBy
	switch {
	case ride.PassengerID == userID:
		by = models.CancelledByPassenger
	case ride.DriverID != nil && *ride.DriverID == userID:
		by = models.CancelledByDriver
	default:
		return nil, common.NewForbiddenError("only the passenger or assigned driver can cancel a ride")
	}

	if ride.Status.IsTerminal() {
		return nil, common.NewBadRequestError(fmt.Sprintf("ride is already %s", ride.Status), nil)
	}

	if reason == "" {
		reason = defaultCancellationReason
	}

	now := time.Now().UTC()
	if err := s.store.MarkCancelled(ctx, rideID, now, by, reason); err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusCancelled
	ride.CancelledAt = &now
	ride.CancelledBy = &by
	ride.CancellationReason = &reason
	metrics.RideTransitionsTotal.WithLabelValues(string(models.RideStatusCancelled)).Inc()

	if ride.DriverID != nil {
		if err := s.drivers.Release(ctx, *ride.DriverID); err != nil {
			logger.ErrorContext(ctx, "failed to release driver after cancellation",
				zap.String("driver_id", ride.DriverID.String()),
				zap.Error(err))
		}
	}

	// Tell the party that didn't cancel.
	recipient := ride.PassengerID
	if by == models.CancelledByPassenger && ride.DriverID != nil {
		recipient = *ride.DriverID
	}
	if by == models.CancelledByDriver || ride.DriverID != nil {
		s.notify(ctx, models.NotificationRequest{
			UserID:    recipient,
			Type:      models.NotificationTypeRideCancelled,
			Title:     "Ride cancelled",
			Message:   fmt.Sprintf("The ride was cancelled by the %s: %s", by, reason),
			Reference: rideReference(rideID),
		})
	}

	var eventDriverID uuid.UUID
	if ride.DriverID != nil {
		eventDriverID = *ride.DriverID
	}
	s.publish(ctx, eventbus.SubjectRideCancelled, eventbus.RideCancelledData{
		RideID:      rideID,
		PassengerID: ride.PassengerID,
		DriverID:    eventDriverID,
		CancelledBy: string(by),
		Reason:      reason,
		CancelledAt: now,
	})

	return ride, nil
}

// RateRide records one party's rating of the other on a completed ride and
// folds it into the ratee's running average. Each party rates at most once.
func (s *Service) RateRide(ctx context.Context, rideID, raterID uuid.UUID, req *models.RideRatingRequest) (*models.Ride, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RateRide")
	defer span.End()

	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, common.NewBadRequestError("only completed rides can be rated", nil)
	}

	var slot RatingSlot
	var rateeID uuid.UUID
	switch {
	case ride.PassengerID == raterID:
		if ride.DriverID == nil {
			return nil, common.NewBadRequestError("ride has no driver to rate", nil)
		}
		slot = RatingSlotPassenger
		rateeID = *ride.DriverID
	case ride.DriverID != nil && *ride.DriverID == raterID:
		slot = RatingSlotDriver
		rateeID = ride.PassengerID
	default:
		return nil, common.NewForbiddenError("only the passenger or assigned driver can rate a ride")
	}

	now := time.Now().UTC()
	written, err := s.store.SetRating(ctx, rideID, slot, req.Rating, req.Comment, now)
	if err != nil {
		return nil, err
	}
	if !written {
		return nil, common.NewBadRequestError("ride has already been rated", nil)
	}

	if err := s.ratings.Apply(ctx, rateeID, req.Rating); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	switch slot {
	case RatingSlotPassenger:
		ride.PassengerRating = &req.Rating
		ride.PassengerComment = req.Comment
		ride.PassengerRatedAt = &now
	case RatingSlotDriver:
		ride.DriverRating = &req.Rating
		ride.DriverComment = req.Comment
		ride.DriverRatedAt = &now
	}

	return ride, nil
}

// GetRide returns a ride visible to the requesting user. Passengers and
// drivers see only their own rides; admins see any.
func (s *Service) GetRide(ctx context.Context, rideID, userID uuid.UUID, role models.UserRole) (*models.Ride, error) {
	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin {
		return ride, nil
	}
	if ride.PassengerID == userID {
		return ride, nil
	}
	if ride.DriverID != nil && *ride.DriverID == userID {
		return ride, nil
	}
	return nil, common.NewForbiddenError("you do not have access to this ride")
}

// ListRides returns the user's ride history, newest first, optionally
// filtered by status. Drivers get the rides they drove; everyone else the
// rides they requested.
func (s *Service) ListRides(ctx context.Context, userID uuid.UUID, role models.UserRole, status models.RideStatus, params pagination.Params) ([]models.Ride, int64, error) {
	if role == models.RoleDriver {
		return s.store.ListByDriver(ctx, userID, status, params)
	}
	return s.store.ListByPassenger(ctx, userID, status, params)
}

func (s *Service) rideForDriver(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ride, err := s.store.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID == nil || *ride.DriverID != driverID {
		return nil, common.NewForbiddenError("ride is not assigned to this driver")
	}
	return ride, nil
}

// notify sends a best-effort notification; delivery failures never fail the
// calling transition.
func (s *Service) notify(ctx context.Context, req models.NotificationRequest) {
	if _, err := s.notifier.Notify(ctx, req); err != nil {
		logger.ErrorContext(ctx, "failed to create notification",
			zap.String("type", string(req.Type)),
			zap.String("user_id", req.UserID.String()),
			zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	event, err := eventbus.NewEvent(subject, "rides-service", data)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		metrics.EventPublishFailuresTotal.WithLabelValues(subject).Inc()
		logger.ErrorContext(ctx, "failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func rideReference(rideID uuid.UUID) *models.Reference {
	return &models.Reference{Kind: models.ReferenceKindRide, ID: rideID}
}
