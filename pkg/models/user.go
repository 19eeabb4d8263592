package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents user role type
type UserRole string

const (
	RolePassenger UserRole = "passenger"
	RoleDriver    UserRole = "driver"
	RoleAdmin     UserRole = "admin"
)

// User represents a user in the system (both passengers and drivers).
// PasswordHash is never serialized; redaction happens at the model, not
// per endpoint.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`

	// Reputation. Rating is the arithmetic mean of all ratings ever applied,
	// maintained incrementally and rounded to one decimal place.
	Rating      float64 `json:"rating" db:"rating"`
	RatingCount int     `json:"rating_count" db:"rating_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
