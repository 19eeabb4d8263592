package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockStore) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Notification, int64, error) {
	args := m.Called(ctx, userID, params)
	var list []models.Notification
	if args.Get(0) != nil {
		list = args.Get(0).([]models.Notification)
	}
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockStore) ResolveUserEmail(ctx context.Context, userID uuid.UUID) (string, string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.String(1), args.Error(2)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendNotificationEmail(to, name string, notificationType models.NotificationType, title, message string, data map[string]interface{}) error {
	return m.Called(to, name, notificationType, title, message, data).Error(0)
}

func TestNotifyPersistsAndRelays(t *testing.T) {
	store := &mockStore{}
	email := &mockEmailSender{}
	svc := NewService(store, email, true)

	userID := uuid.New()
	store.On("ResolveUserEmail", mock.Anything, userID).Return("rider@example.com", "Ada", nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == userID && n.Type == models.NotificationTypeRideAccepted && !n.IsRead
	})).Return(nil)
	email.On("SendNotificationEmail", "rider@example.com", "Ada",
		models.NotificationTypeRideAccepted, "Driver found", "Your driver is on the way",
		mock.Anything).Return(nil)

	n, err := svc.Notify(context.Background(), models.NotificationRequest{
		UserID:  userID,
		Type:    models.NotificationTypeRideAccepted,
		Title:   "Driver found",
		Message: "Your driver is on the way",
	})

	require.NoError(t, err)
	require.NotNil(t, n.RecipientEmail)
	assert.Equal(t, "rider@example.com", *n.RecipientEmail)

	svc.Drain()
	email.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestNotifyEmailResolveFailureStillPersists(t *testing.T) {
	store := &mockStore{}
	email := &mockEmailSender{}
	svc := NewService(store, email, true)

	userID := uuid.New()
	store.On("ResolveUserEmail", mock.Anything, userID).Return("", "", errors.New("user gone"))
	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.Notify(context.Background(), models.NotificationRequest{
		UserID: userID,
		Type:   models.NotificationTypeRideCancelled,
		Title:  "Ride cancelled",
	})

	require.NoError(t, err)
	assert.Nil(t, n.RecipientEmail)

	svc.Drain()
	email.AssertNotCalled(t, "SendNotificationEmail",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyRelayFailureIsSwallowed(t *testing.T) {
	store := &mockStore{}
	email := &mockEmailSender{}
	svc := NewService(store, email, true)

	userID := uuid.New()
	store.On("ResolveUserEmail", mock.Anything, userID).Return("rider@example.com", "Ada", nil)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	email.On("SendNotificationEmail", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := svc.Notify(context.Background(), models.NotificationRequest{
		UserID: userID,
		Type:   models.NotificationTypeRideArrived,
		Title:  "Driver arrived",
	})

	require.NoError(t, err)
	svc.Drain()
}

func TestNotifyStoreFailurePropagates(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, nil, false)

	userID := uuid.New()
	store.On("ResolveUserEmail", mock.Anything, userID).Return("rider@example.com", "Ada", nil)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := svc.Notify(context.Background(), models.NotificationRequest{
		UserID: userID,
		Type:   models.NotificationTypeRideRequest,
	})

	assert.Error(t, err)
}

func TestNotifyEmailDataPreferredOverData(t *testing.T) {
	store := &mockStore{}
	email := &mockEmailSender{}
	svc := NewService(store, email, true)

	userID := uuid.New()
	emailData := map[string]interface{}{"Driver": "Kemal", "ETA": "6 min"}

	store.On("ResolveUserEmail", mock.Anything, userID).Return("rider@example.com", "Ada", nil)
	store.On("Create", mock.Anything, mock.Anything).Return(nil)
	email.On("SendNotificationEmail", "rider@example.com", "Ada",
		models.NotificationTypeRideAccepted, mock.Anything, mock.Anything, emailData).Return(nil)

	_, err := svc.Notify(context.Background(), models.NotificationRequest{
		UserID:    userID,
		Type:      models.NotificationTypeRideAccepted,
		Data:      map[string]interface{}{"ride_id": "abc"},
		EmailData: emailData,
	})

	require.NoError(t, err)
	svc.Drain()
	email.AssertExpectations(t)
}

func TestMarkReadDelegatesOwnership(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, nil, false)

	id, userID := uuid.New(), uuid.New()
	store.On("MarkRead", mock.Anything, id, userID).Return(nil)

	require.NoError(t, svc.MarkRead(context.Background(), id, userID))
	store.AssertExpectations(t)
}
