package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event statuses.
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// Outbox event types.
const (
	EventInvitationSent           = "user.invitation.sent"
	EventInvitationDeliveryFailed = "user.invitation.delivery_failed"
)

// OutboxEvent is a queued side effect recorded in the same transaction
// as the state change that caused it. The outbox table is deliberately
// tenant-agnostic so the delivery worker can sweep all tenants' rows;
// the tenant id travels in the row instead.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	EventType     string          `json:"event_type" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	Status        string          `json:"status" db:"status"`
	Attempts      int             `json:"attempts" db:"attempts"`
	NextAttemptAt time.Time       `json:"next_attempt_at" db:"next_attempt_at"`
	LastError     *string         `json:"last_error" db:"last_error"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// InvitationPayload is the payload for user.invitation.sent events.
type InvitationPayload struct {
	Recipient      string    `json:"recipient"`
	Role           string    `json:"role"`
	TenantID       uuid.UUID `json:"tenant_id"`
	TenantName     string    `json:"tenant_name"`
	ActivationLink string    `json:"activation_link"`
	InvitedBy      string    `json:"invited_by"`
}
