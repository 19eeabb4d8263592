package payments

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/metrics"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/resilience"
)

// Charger executes an external card charge.
type Charger interface {
	Charge(amountCents int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error)
}

// Store persists settlement records.
type Store interface {
	Create(ctx context.Context, p *models.Payment) error
}

// SettlementResult is the outcome of settling a completed ride.
type SettlementResult struct {
	PaymentID      uuid.UUID
	Status         string
	TransactionID  *string
	ReceiptURL     *string
	Commission     float64
	DriverEarnings float64
}

// Service settles completed rides: it splits the fare between platform
// commission and driver earnings, charges the external processor for card
// payments, and records the settlement.
type Service struct {
	store          Store
	charger        Charger
	breaker        *resilience.CircuitBreaker
	commissionRate float64
	currency       string
	receiptBaseURL string
}

// NewService creates a payment service. A nil charger forces card payments
// into the failed state, which callers treat as settlement-deferred.
func NewService(store Store, charger Charger, engineCfg config.EngineConfig, stripeCfg config.StripeConfig) *Service {
	return &Service{
		store:          store,
		charger:        charger,
		commissionRate: engineCfg.CommissionRate,
		currency:       stripeCfg.Currency,
		receiptBaseURL: stripeCfg.ReceiptBaseURL,
		breaker: resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "payments-stripe",
			Timeout:          60 * time.Second,
			FailureThreshold: 5,
		}, nil),
	}
}

// Settle charges the passenger for a completed ride and records the outcome.
// Cash rides settle out of band and are recorded as cash_pending. A failed
// external charge is recorded as failed; the error is returned so the caller
// can decide whether to surface it. Once a driver is present the result is
// always non-nil: even a failed settlement record must never block ride
// completion, since by this point the external charge may already have gone
// through and a retry would charge the card twice.
func (s *Service) Settle(ctx context.Context, ride *models.Ride) (*SettlementResult, error) {
	if ride.DriverID == nil {
		return nil, fmt.Errorf("cannot settle ride %s without a driver", ride.ID)
	}

	commission := round2(ride.Fare.Total * s.commissionRate)
	earnings := round2(ride.Fare.Total - commission)

	payment := &models.Payment{
		ID:             uuid.New(),
		Reference:      models.Reference{Kind: models.ReferenceKindRide, ID: ride.ID},
		PassengerID:    ride.PassengerID,
		DriverID:       *ride.DriverID,
		Amount:         ride.Fare.Total,
		Currency:       s.currency,
		Method:         ride.PaymentMethod,
		Commission:     commission,
		DriverEarnings: earnings,
	}

	var chargeErr error
	switch ride.PaymentMethod {
	case models.PaymentMethodCash:
		payment.Status = models.PaymentStatusCashPending
	default:
		chargeErr = s.charge(ctx, ride, payment)
	}

	if err := s.store.Create(ctx, payment); err != nil {
		// The ride row still records the charge outcome and transaction ID,
		// so the missing payment row is reconcilable out of band.
		logger.ErrorContext(ctx, "failed to record settlement",
			zap.String("ride_id", ride.ID.String()),
			zap.String("payment_status", payment.Status),
			zap.Error(err),
		)
		metrics.PaymentSettlementsTotal.WithLabelValues("unrecorded").Inc()
	} else {
		metrics.PaymentSettlementsTotal.WithLabelValues(payment.Status).Inc()
	}

	result := &SettlementResult{
		PaymentID:      payment.ID,
		Status:         payment.Status,
		TransactionID:  payment.TransactionID,
		ReceiptURL:     payment.ReceiptURL,
		Commission:     commission,
		DriverEarnings: earnings,
	}
	return result, chargeErr
}

func (s *Service) charge(ctx context.Context, ride *models.Ride, payment *models.Payment) error {
	if s.charger == nil {
		payment.Status = models.PaymentStatusFailed
		return fmt.Errorf("no payment processor configured")
	}

	amountCents := int64(math.Round(ride.Fare.Total * 100))
	description := fmt.Sprintf("Ride %s", ride.ID)
	metadata := map[string]string{
		"ride_id":      ride.ID.String(),
		"passenger_id": ride.PassengerID.String(),
	}

	result, err := s.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return s.charger.Charge(amountCents, s.currency, description, metadata)
	})
	if err != nil {
		payment.Status = models.PaymentStatusFailed
		logger.ErrorContext(ctx, "payment charge failed",
			zap.String("ride_id", ride.ID.String()),
			zap.Error(err),
		)
		return err
	}

	pi := result.(*stripe.PaymentIntent)
	now := time.Now()
	payment.Status = models.PaymentStatusCompleted
	payment.TransactionID = &pi.ID
	payment.ProcessedAt = &now
	receiptURL := fmt.Sprintf("%s/%s", s.receiptBaseURL, payment.ID)
	payment.ReceiptURL = &receiptURL
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
