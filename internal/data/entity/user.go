package entity

import (
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Valid reports whether the role belongs to the closed set. Unknown values
// are rejected at the boundary, not deep in business logic.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

type User struct {
	Base
	Name         string   `db:"name"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Role         UserRole `db:"role"`
	Verified     bool     `db:"verified"`

	// At most one active verification/reset token per user.
	// Both fields are NULL once the token is consumed.
	VerificationToken *string    `db:"verification_token"`
	TokenExpiresAt    *time.Time `db:"token_expires_at"`
}
