package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inkwell/internal/identity"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

type MockProvisioningService struct {
	mock.Mock
}

func (m *MockProvisioningService) HandleEvent(ctx context.Context, evt identity.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type stubCache struct{}

func (stubCache) GetOrgMapping(ctx context.Context, orgID string) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}
func (stubCache) SetOrgMapping(ctx context.Context, orgID string, tenantID uuid.UUID, ttl time.Duration) error {
	return nil
}
func (stubCache) DeleteOrgMapping(ctx context.Context, orgID string) error { return nil }
func (stubCache) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}
func (stubCache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (stubCache) GetString(ctx context.Context, key string) (string, error) { return "", nil }
func (stubCache) Delete(ctx context.Context, key string) error              { return nil }

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(testWebhookSecret, "whsec_"))
	require.NoError(t, err)

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "msg_1.%s.%s", ts, body)
	sig := "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(body))
	req.Header.Set(identity.HeaderWebhookID, "msg_1")
	req.Header.Set(identity.HeaderWebhookTimestamp, ts)
	req.Header.Set(identity.HeaderWebhookSignature, sig)
	return req
}

func TestIdentityWebhookHandlesSignedEvent(t *testing.T) {
	provisioning := new(MockProvisioningService)
	provisioning.On("HandleEvent", mock.Anything, mock.MatchedBy(func(evt identity.Event) bool {
		return evt.Type == "organization.created"
	})).Return(nil)

	h := NewWebhookHandlers(identity.NewWebhookVerifier(testWebhookSecret), provisioning, stubCache{})

	e := echo.New()
	body := `{"type":"organization.created","data":{"id":"org_2abc","name":"Lighthouse Press"}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(signedRequest(t, body), rec)

	err := h.IdentityWebhook(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	provisioning.AssertExpectations(t)
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	provisioning := new(MockProvisioningService)
	h := NewWebhookHandlers(identity.NewWebhookVerifier(testWebhookSecret), provisioning, stubCache{})

	e := echo.New()
	req := signedRequest(t, `{"type":"organization.created","data":{}}`)
	req.Header.Set(identity.HeaderWebhookSignature, "v1,Zm9yZ2VkZm9yZ2VkZm9yZ2VkZm9yZ2Vk")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.IdentityWebhook(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	// A rejected event must never reach provisioning.
	provisioning.AssertNotCalled(t, "HandleEvent", mock.Anything, mock.Anything)
}

func TestIdentityWebhookHandlerFailureIs500(t *testing.T) {
	provisioning := new(MockProvisioningService)
	provisioning.On("HandleEvent", mock.Anything, mock.Anything).
		Return(errors.New("database down"))

	h := NewWebhookHandlers(identity.NewWebhookVerifier(testWebhookSecret), provisioning, stubCache{})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(signedRequest(t, `{"type":"organization.created","data":{}}`), rec)

	err := h.IdentityWebhook(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	// 500 tells the provider to redeliver.
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}
