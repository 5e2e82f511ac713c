// Package outbox delivers queued side effects recorded by the request
// path. The request path only ever appends rows; everything here runs
// off a background scheduler.
package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"inkwell/internal/models"
)

// Sender delivers one claimed event. Implementations must be safe for
// concurrent use; the worker fans deliveries out.
type Sender interface {
	Send(ctx context.Context, event models.OutboxEvent) error
}

// EmailSender posts invitation events to the mail relay. With no relay
// configured it logs the delivery instead, which is the development
// setup.
type EmailSender struct {
	relayURL string
	apiKey   string
	client   *http.Client
}

func NewEmailSender(relayURL, apiKey string) *EmailSender {
	return &EmailSender{
		relayURL: relayURL,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *EmailSender) Send(ctx context.Context, event models.OutboxEvent) error {
	if event.EventType != models.EventInvitationSent {
		// Operational events are for dashboards, not recipients.
		log.Printf("outbox event %s (%s) acknowledged without delivery", event.ID, event.EventType)
		return nil
	}

	var payload models.InvitationPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode invitation payload: %w", err)
	}

	if s.relayURL == "" {
		log.Printf("invitation email for %s (tenant %s): %s", payload.Recipient, payload.TenantID, payload.ActivationLink)
		return nil
	}

	body, err := json.Marshal(map[string]string{
		"to":              payload.Recipient,
		"template":        "user-invitation",
		"tenant_name":     payload.TenantName,
		"role":            payload.Role,
		"activation_link": payload.ActivationLink,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail relay returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
