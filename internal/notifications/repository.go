package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/pagination"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create persists a notification record
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	var refKind *models.ReferenceKind
	var refID *uuid.UUID
	if n.Reference != nil {
		refKind = &n.Reference.Kind
		refID = &n.Reference.ID
	}

	query := `
		INSERT INTO notifications (
			id, user_id, recipient_email, type, title, message,
			reference_kind, reference_id, data, is_read
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID,
		n.UserID,
		n.RecipientEmail,
		n.Type,
		n.Title,
		n.Message,
		refKind,
		refID,
		n.Data,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListByUser returns the user's notifications, newest first, with the total
// count for pagination.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Notification, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, recipient_email, type, title, message,
		       reference_kind, reference_id, data, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var refKind *models.ReferenceKind
		var refID *uuid.UUID
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.RecipientEmail,
			&n.Type,
			&n.Title,
			&n.Message,
			&refKind,
			&refID,
			&n.Data,
			&n.IsRead,
			&n.ReadAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if refKind != nil && refID != nil {
			n.Reference = &models.Reference{Kind: *refKind, ID: *refID}
		}
		notifications = append(notifications, n)
	}

	return notifications, total, rows.Err()
}

// MarkRead records a read receipt. Only the owning user can mark their
// notification; marking an already-read notification is a no-op success.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`

	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("notification not found", nil)
	}
	return nil
}

// ResolveUserEmail looks up the recipient's email and display name.
func (r *Repository) ResolveUserEmail(ctx context.Context, userID uuid.UUID) (email, name string, err error) {
	query := `SELECT email, first_name FROM users WHERE id = $1`

	if err := r.db.QueryRow(ctx, query, userID).Scan(&email, &name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", common.NewNotFoundError("user not found", nil)
		}
		return "", "", fmt.Errorf("failed to resolve user email: %w", err)
	}
	return email, name, nil
}
