package payments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbanow/rideline/pkg/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create persists a settlement record.
func (r *Repository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, reference_kind, reference_id, passenger_id, driver_id,
			amount, currency, method, status, transaction_id,
			commission, driver_earnings, receipt_url, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Reference.Kind,
		p.Reference.ID,
		p.PassengerID,
		p.DriverID,
		p.Amount,
		p.Currency,
		p.Method,
		p.Status,
		p.TransactionID,
		p.Commission,
		p.DriverEarnings,
		p.ReceiptURL,
		p.ProcessedAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}
