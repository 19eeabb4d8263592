package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotificationTypeRideRequest   NotificationType = "ride_request"
	NotificationTypeRideScheduled NotificationType = "ride_scheduled"
	NotificationTypeRideNoDriver  NotificationType = "ride_no_driver"
	NotificationTypeRideAccepted  NotificationType = "ride_accepted"
	NotificationTypeRideArrived   NotificationType = "ride_arrived"
	NotificationTypeRideStarted   NotificationType = "ride_started"
	NotificationTypeRideCompleted NotificationType = "ride_completed"
	NotificationTypeRideCancelled NotificationType = "ride_cancelled"
	NotificationTypePayment       NotificationType = "payment"
)

// ReferenceKind tags which entity a Reference points at.
type ReferenceKind string

const (
	ReferenceKindRide    ReferenceKind = "ride"
	ReferenceKindPayment ReferenceKind = "payment"
	ReferenceKindUser    ReferenceKind = "user"
)

// Reference is a tagged union {kind, id} standing in for a relationship that
// can point at one of several entity kinds. Resolution is an explicit lookup
// keyed by Kind.
type Reference struct {
	Kind ReferenceKind `json:"kind" db:"reference_kind"`
	ID   uuid.UUID     `json:"id" db:"reference_id"`
}

// Notification is a durable record of an event directed at a recipient. It is
// created once per event and never updated by the engine afterwards; only the
// read receipt mutates it.
type Notification struct {
	ID             uuid.UUID              `json:"id" db:"id"`
	UserID         uuid.UUID              `json:"user_id" db:"user_id"`
	RecipientEmail *string                `json:"recipient_email,omitempty" db:"recipient_email"`
	Type           NotificationType       `json:"type" db:"type"`
	Title          string                 `json:"title" db:"title"`
	Message        string                 `json:"message" db:"message"`
	Reference      *Reference             `json:"reference,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty" db:"data"`
	IsRead         bool                   `json:"is_read" db:"is_read"`
	ReadAt         *time.Time             `json:"read_at,omitempty" db:"read_at"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}

// NotificationRequest is the payload for creating a notification. EmailData
// carries auxiliary values for type-specific email templates (driver name,
// ETA and similar) without persisting them as the notification body.
type NotificationRequest struct {
	UserID    uuid.UUID              `json:"user_id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Reference *Reference             `json:"reference,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	EmailData map[string]interface{} `json:"email_data,omitempty"`
}
