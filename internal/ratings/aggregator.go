package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gurbanow/rideline/pkg/common"
	"github.com/gurbanow/rideline/pkg/tracing"
)

// Aggregator maintains each user's reputation as an incrementally-updated
// arithmetic mean. No per-rating history is kept; once folded in, an
// individual rating cannot be revised.
type Aggregator struct {
	db *pgxpool.Pool
}

// NewAggregator creates a rating aggregator.
func NewAggregator(db *pgxpool.Pool) *Aggregator {
	return &Aggregator{db: db}
}

// nextAverage folds one more rating into a running average of count ratings,
// rounded to one decimal place.
func nextAverage(current float64, count, rating int) float64 {
	next := (current*float64(count) + float64(rating)) / float64(count+1)
	return math.Round(next*10) / 10
}

// Apply folds one rating into the user's running average. The row is locked
// for the read-modify-write so concurrent ratings cannot lose an update.
func (a *Aggregator) Apply(ctx context.Context, userID uuid.UUID, rating int) error {
	if rating < 1 || rating > 5 {
		return common.NewBadRequestError("rating must be between 1 and 5", nil)
	}

	return tracing.TraceDBQuery(ctx, "ratings", "users.apply_rating", func(ctx context.Context) error {
		tx, err := a.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin rating update: %w", err)
		}
		defer tx.Rollback(ctx)

		var current float64
		var count int
		err = tx.QueryRow(ctx,
			`SELECT rating, rating_count FROM users WHERE id = $1 FOR UPDATE`,
			userID,
		).Scan(&current, &count)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NewNotFoundError("user not found", nil)
		}
		if err != nil {
			return fmt.Errorf("failed to load user rating: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET rating = $2, rating_count = $3, updated_at = NOW() WHERE id = $1`,
			userID, nextAverage(current, count, rating), count+1,
		)
		if err != nil {
			return fmt.Errorf("failed to apply rating: %w", err)
		}
		return tx.Commit(ctx)
	})
}
