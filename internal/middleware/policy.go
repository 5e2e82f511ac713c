package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/authz"
)

// RequireCapability adapts an authz predicate to an echo middleware. A
// denied check returns 403 before the handler runs, so no transaction
// is ever opened for a request the policy rejects.
func RequireCapability(allowed func(authz.Role) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := GetPrincipal(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}
			if !allowed(principal.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
