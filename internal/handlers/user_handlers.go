package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/common"
	"inkwell/internal/middleware"
	"inkwell/internal/services"
)

// UserHandlers serves the member roster and invitations.
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// ListUsers handles GET /v1/users
func (h *UserHandlers) ListUsers(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}
	return respond(c, http.StatusOK, h.userService.List(c.Request().Context(), principal))
}

// InviteUser handles POST /v1/users/invite
func (h *UserHandlers) InviteUser(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}

	var req services.InviteRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequestError(c, "Invalid request body")
	}

	return respond(c, http.StatusCreated, h.userService.Invite(c.Request().Context(), principal, req))
}

// respond maps an ActionResult onto the HTTP status space.
func respond(c echo.Context, okStatus int, result services.ActionResult) error {
	if result.OK {
		return c.JSON(okStatus, result)
	}
	status := http.StatusInternalServerError
	switch result.Kind {
	case services.KindUnauthorized:
		status = http.StatusForbidden
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	}
	return c.JSON(status, result)
}
