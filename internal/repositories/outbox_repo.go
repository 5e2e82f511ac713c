package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// OutboxRepository stores queued side effects. Enqueue runs inside the
// scoped transaction that records the causing state change; the claim
// and mark operations run on the pool from the delivery worker.
type OutboxRepository interface {
	Enqueue(ctx context.Context, db DB, tenantID uuid.UUID, eventType string, payload any) (uuid.UUID, error)
	ClaimDue(ctx context.Context, db DB, limit int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, db DB, id uuid.UUID) error
	MarkFailed(ctx context.Context, db DB, id uuid.UUID, deliveryErr string, nextAttempt time.Time) error
	MarkDead(ctx context.Context, db DB, id uuid.UUID, deliveryErr string) error
}

type outboxRepository struct{}

func NewOutboxRepository() OutboxRepository {
	return &outboxRepository{}
}

func (r *outboxRepository) Enqueue(ctx context.Context, db DB, tenantID uuid.UUID, eventType string, payload any) (uuid.UUID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal outbox payload: %w", err)
	}
	id := uuid.New()
	query := `INSERT INTO outbox_events (id, tenant_id, event_type, payload, status, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`
	if _, err := db.Exec(ctx, query, id, tenantID, eventType, raw, models.OutboxStatusPending); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue outbox event: %w", err)
	}
	return id, nil
}

// ClaimDue leases due pending events oldest first. Pushing
// next_attempt_at forward in the same statement makes the claim hold
// past the statement itself, so a concurrent sweep in this process or
// another skips rows already being delivered; the mark calls settle
// the final state, and an abandoned lease simply becomes due again.
func (r *outboxRepository) ClaimDue(ctx context.Context, db DB, limit int) ([]models.OutboxEvent, error) {
	query := `UPDATE outbox_events
		SET next_attempt_at = NOW() + INTERVAL '1 minute', updated_at = NOW()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = $1 AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED)
		RETURNING id, tenant_id, event_type, payload, status, attempts, next_attempt_at, last_error, created_at, updated_at`
	rows, err := db.Query(ctx, query, models.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		var e models.OutboxEvent
		if err := rows.Scan(&e.ID, &e.TenantID, &e.EventType, &e.Payload, &e.Status,
			&e.Attempts, &e.NextAttemptAt, &e.LastError, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, db DB, id uuid.UUID) error {
	query := `UPDATE outbox_events SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := db.Exec(ctx, query, models.OutboxStatusSent, id); err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, db DB, id uuid.UUID, deliveryErr string, nextAttempt time.Time) error {
	query := `UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $1, next_attempt_at = $2, updated_at = NOW()
		WHERE id = $3`
	if _, err := db.Exec(ctx, query, deliveryErr, nextAttempt, id); err != nil {
		return fmt.Errorf("mark outbox event failed: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkDead(ctx context.Context, db DB, id uuid.UUID, deliveryErr string) error {
	query := `UPDATE outbox_events
		SET status = $1, attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $3`
	if _, err := db.Exec(ctx, query, models.OutboxStatusFailed, deliveryErr, id); err != nil {
		return fmt.Errorf("mark outbox event dead: %w", err)
	}
	return nil
}
