package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment statuses. CashPending marks settlement deferred to an out-of-band
// cash confirmation flow.
const (
	PaymentStatusPending     = "pending"
	PaymentStatusCompleted   = "completed"
	PaymentStatusFailed      = "failed"
	PaymentStatusCashPending = "cash_pending"
)

// Payment methods accepted at ride request time.
const (
	PaymentMethodCard   = "card"
	PaymentMethodWallet = "wallet"
	PaymentMethodCash   = "cash"
)

// Payment represents a settlement record for a completed ride.
type Payment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Reference      Reference  `json:"reference"`
	PassengerID    uuid.UUID  `json:"passenger_id" db:"passenger_id"`
	DriverID       uuid.UUID  `json:"driver_id" db:"driver_id"`
	Amount         float64    `json:"amount" db:"amount"`
	Currency       string     `json:"currency" db:"currency"`
	Method         string     `json:"method" db:"method"`
	Status         string     `json:"status" db:"status"`
	TransactionID  *string    `json:"transaction_id,omitempty" db:"transaction_id"`
	Commission     float64    `json:"commission" db:"commission"`
	DriverEarnings float64    `json:"driver_earnings" db:"driver_earnings"`
	ReceiptURL     *string    `json:"receipt_url,omitempty" db:"receipt_url"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
