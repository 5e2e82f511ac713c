package common

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

// Keys under which the auth middleware stashes the caller's identity
// in the echo context.
const (
	UserIDKey   contextKey = "user_id"
	OrgIDKey    contextKey = "org_id"
	RoleKey     contextKey = "role"
	TenantIDKey contextKey = "tenant_id"
)

// ValidateUUID checks that s is a canonical 36-character UUID string.
// uuid.Parse alone accepts several alternate encodings (braced, URN,
// 32-char hex) that must not reach the database as a tenant marker.
func ValidateUUID(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.Nil, fmt.Errorf("invalid uuid length %d", len(s))
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return uuid.Nil, fmt.Errorf("invalid uuid format")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid: %w", err)
	}
	return id, nil
}

// ErrorResponse is the JSON error envelope for every handler.
type ErrorResponse struct {
	Error string `json:"error"`
}

func SendBadRequestError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func SendUnauthorizedError(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}

func SendForbiddenError(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, ErrorResponse{Error: message})
}

func SendNotFoundError(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

func SendConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, ErrorResponse{Error: message})
}

func SendInternalServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
}
