package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/models"
)

type mockPaymentStore struct {
	mock.Mock
}

func (m *mockPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

type mockCharger struct {
	mock.Mock
}

func (m *mockCharger) Charge(amountCents int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	args := m.Called(amountCents, currency, description, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func testRide(method string) *models.Ride {
	driverID := uuid.New()
	return &models.Ride{
		ID:            uuid.New(),
		PassengerID:   uuid.New(),
		DriverID:      &driverID,
		PaymentMethod: method,
		Fare:          models.Fare{Base: 2.50, Distance: 6.00, Time: 2.50, Total: 11.00},
	}
}

func newTestPayments(store Store, charger Charger) *Service {
	return NewService(store, charger,
		config.EngineConfig{CommissionRate: 0.20},
		config.StripeConfig{Currency: "usd", ReceiptBaseURL: "https://receipts.test"},
	)
}

func TestSettleCardSuccess(t *testing.T) {
	store := &mockPaymentStore{}
	charger := &mockCharger{}
	svc := newTestPayments(store, charger)
	ride := testRide(models.PaymentMethodCard)

	charger.On("Charge", int64(1100), "usd", mock.Anything, mock.Anything).
		Return(&stripe.PaymentIntent{ID: "pi_123"}, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.PaymentStatusCompleted &&
			p.Reference.Kind == models.ReferenceKindRide &&
			p.Reference.ID == ride.ID
	})).Return(nil)

	result, err := svc.Settle(context.Background(), ride)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	require.NotNil(t, result.TransactionID)
	assert.Equal(t, "pi_123", *result.TransactionID)
	assert.NotNil(t, result.ReceiptURL)
	assert.Equal(t, 2.20, result.Commission)
	assert.Equal(t, 8.80, result.DriverEarnings)
}

func TestSettleCashSkipsProcessor(t *testing.T) {
	store := &mockPaymentStore{}
	charger := &mockCharger{}
	svc := newTestPayments(store, charger)
	ride := testRide(models.PaymentMethodCash)

	store.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.PaymentStatusCashPending && p.TransactionID == nil
	})).Return(nil)

	result, err := svc.Settle(context.Background(), ride)

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCashPending, result.Status)
	charger.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettleChargeFailureStillRecorded(t *testing.T) {
	store := &mockPaymentStore{}
	charger := &mockCharger{}
	svc := newTestPayments(store, charger)
	ride := testRide(models.PaymentMethodCard)

	charger.On("Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("card declined"))
	store.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
		return p.Status == models.PaymentStatusFailed
	})).Return(nil)

	result, err := svc.Settle(context.Background(), ride)

	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.PaymentStatusFailed, result.Status)
	store.AssertExpectations(t)
}

func TestSettleRecordFailureStillReturnsResult(t *testing.T) {
	store := &mockPaymentStore{}
	charger := &mockCharger{}
	svc := newTestPayments(store, charger)
	ride := testRide(models.PaymentMethodCard)

	charger.On("Charge", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&stripe.PaymentIntent{ID: "pi_456"}, nil)
	store.On("Create", mock.Anything, mock.Anything).
		Return(errors.New("connection reset"))

	result, err := svc.Settle(context.Background(), ride)

	// The charge already went through; a lost record must not make the
	// caller abort and retry the charge.
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.PaymentStatusCompleted, result.Status)
	require.NotNil(t, result.TransactionID)
	assert.Equal(t, "pi_456", *result.TransactionID)
	assert.Equal(t, 8.80, result.DriverEarnings)
}

func TestSettleWithoutDriverFails(t *testing.T) {
	svc := newTestPayments(&mockPaymentStore{}, &mockCharger{})
	ride := testRide(models.PaymentMethodCard)
	ride.DriverID = nil

	_, err := svc.Settle(context.Background(), ride)

	assert.Error(t, err)
}

func TestSettleCommissionRounding(t *testing.T) {
	store := &mockPaymentStore{}
	svc := newTestPayments(store, nil)
	ride := testRide(models.PaymentMethodCash)
	ride.Fare.Total = 10.33

	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Settle(context.Background(), ride)

	require.NoError(t, err)
	assert.Equal(t, 2.07, result.Commission)
	assert.Equal(t, 8.26, result.DriverEarnings)
	assert.InDelta(t, ride.Fare.Total, result.Commission+result.DriverEarnings, 0.001)
}
