package notifications

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/metrics"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

// Store is the persistence surface the notification service depends on.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	ResolveUserEmail(ctx context.Context, userID uuid.UUID) (email, name string, err error)
}

// EmailSender relays a notification to an external channel.
type EmailSender interface {
	SendNotificationEmail(to, name string, notificationType models.NotificationType, title, message string, data map[string]interface{}) error
}

// Service is the notification sink: it durably records every event directed
// at a user, then relays it to external channels on a best-effort basis. The
// durable record is the contract; relay failures never propagate.
type Service struct {
	store        Store
	email        EmailSender
	emailEnabled bool

	relayWG sync.WaitGroup
}

// NewService creates a notification service. A nil email sender disables the
// relay entirely.
func NewService(store Store, email EmailSender, emailEnabled bool) *Service {
	return &Service{
		store:        store,
		email:        email,
		emailEnabled: emailEnabled && email != nil,
	}
}

// Notify records the notification and kicks off the asynchronous relay. A
// failed recipient lookup only disables the relay for this notification; the
// record is still persisted.
func (s *Service) Notify(ctx context.Context, req models.NotificationRequest) (*models.Notification, error) {
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Reference: req.Reference,
		Data:      req.Data,
	}

	var recipientName string
	email, name, err := s.store.ResolveUserEmail(ctx, req.UserID)
	if err != nil {
		logger.WarnContext(ctx, "failed to resolve notification recipient",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
	} else {
		n.RecipientEmail = &email
		recipientName = name
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.emailEnabled && n.RecipientEmail != nil {
		emailData := req.EmailData
		if emailData == nil {
			emailData = req.Data
		}
		s.relayWG.Add(1)
		go s.relay(n.Type, *n.RecipientEmail, recipientName, n.Title, n.Message, emailData)
	}

	return n, nil
}

// relay delivers the email outside the request path. Failures are counted
// and logged, never surfaced.
func (s *Service) relay(notificationType models.NotificationType, to, name, title, message string, data map[string]interface{}) {
	defer s.relayWG.Done()

	if err := s.email.SendNotificationEmail(to, name, notificationType, title, message, data); err != nil {
		metrics.NotificationRelayFailuresTotal.WithLabelValues(string(notificationType)).Inc()
		logger.Warn("notification relay failed",
			zap.String("type", string(notificationType)),
			zap.Error(err),
		)
	}
}

// List returns a user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Notification, int64, error) {
	return s.store.ListByUser(ctx, userID, params)
}

// MarkRead records a read receipt for the user's notification.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.store.MarkRead(ctx, id, userID)
}

// Drain waits for in-flight relays; used on shutdown.
func (s *Service) Drain() {
	s.relayWG.Wait()
}
