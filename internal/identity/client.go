package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// InvitationResult is what the provider returns for a created
// organization invitation.
type InvitationResult struct {
	ID             string `json:"id"`
	ActivationLink string `json:"activation_link"`
	Status         string `json:"status"`
}

// Client calls the identity provider's admin API.
type Client interface {
	CreateInvitation(ctx context.Context, orgID, email, role string) (*InvitationResult, error)
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) Client {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *httpClient) CreateInvitation(ctx context.Context, orgID, email, role string) (*InvitationResult, error) {
	payload := map[string]string{
		"email_address": email,
		"role":          role,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invitation request: %w", err)
	}

	url := fmt.Sprintf("%s/organizations/%s/invitations", c.baseURL, orgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invitation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("create invitation: provider returned %d: %s", resp.StatusCode, msg)
	}

	var result InvitationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode invitation response: %w", err)
	}
	return &result, nil
}
