package models

import (
	"time"

	"github.com/google/uuid"
)

// User statuses. A user is pending from invitation until the
// identity provider reports the membership was accepted.
const (
	UserStatusPending  = "pending"
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User is a member of one tenant. IdentityUserID stays empty until the
// invitation is accepted and the provider assigns an id.
type User struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	IdentityUserID string     `json:"identity_user_id" db:"identity_user_id"`
	Email          string     `json:"email" db:"email"`
	FirstName      *string    `json:"first_name" db:"first_name"`
	LastName       *string    `json:"last_name" db:"last_name"`
	Role           string     `json:"role" db:"role"`
	Status         string     `json:"status" db:"status"`
	LastLogin      *time.Time `json:"last_login" db:"last_login"`
	TenantID       uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}
