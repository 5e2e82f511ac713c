package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"inkwell/internal/caching"
	"inkwell/internal/identity"
	"inkwell/internal/services"
)

// One source should not be able to flood the provisioning path.
const (
	webhookRateLimit  = 120
	webhookRateWindow = time.Minute
)

// WebhookHandlers receives identity-provider lifecycle events.
type WebhookHandlers struct {
	verifier     *identity.WebhookVerifier
	provisioning services.ProvisioningService
	cache        caching.CacheService
}

func NewWebhookHandlers(verifier *identity.WebhookVerifier, provisioning services.ProvisioningService, cache caching.CacheService) *WebhookHandlers {
	return &WebhookHandlers{
		verifier:     verifier,
		provisioning: provisioning,
		cache:        cache,
	}
}

// IdentityWebhook handles POST /webhooks/identity. A bad signature is
// the client's fault (400); a handler failure is ours (500), and the
// provider redelivers.
func (h *WebhookHandlers) IdentityWebhook(c echo.Context) error {
	limited, err := h.cache.IsRateLimited(c.Request().Context(), "webhooks:identity:"+c.RealIP(), webhookRateLimit, webhookRateWindow)
	if err != nil {
		log.Printf("WARN: webhook rate limit check failed: %v", err)
	} else if limited {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	if err := h.verifier.Verify(c.Request().Header, body); err != nil {
		log.Printf("webhook signature rejected: %v", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook signature")
	}

	var event identity.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed event payload")
	}

	if err := h.provisioning.HandleEvent(c.Request().Context(), event); err != nil {
		log.Printf("ERROR: handling %s event: %v", event.Type, err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Event handling failed")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "handled",
		"event":  event.Type,
	})
}
