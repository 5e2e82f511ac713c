package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/common"
	"inkwell/internal/middleware"
	"inkwell/internal/services"
)

// TenantHandlers serves the tenant profile and settings endpoints.
type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// GetTenant handles GET /v1/tenant
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}
	return respond(c, http.StatusOK, h.tenantService.Get(c.Request().Context(), principal))
}

// UpdateBranding handles PUT /v1/tenant/branding
func (h *TenantHandlers) UpdateBranding(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}

	var req services.BrandingRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequestError(c, "Invalid request body")
	}
	return respond(c, http.StatusOK, h.tenantService.UpdateBranding(c.Request().Context(), principal, req))
}

// UpdateLocale handles PUT /v1/tenant/locale
func (h *TenantHandlers) UpdateLocale(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}

	var req services.LocaleRequest
	if err := c.Bind(&req); err != nil {
		return common.SendBadRequestError(c, "Invalid request body")
	}
	return respond(c, http.StatusOK, h.tenantService.UpdateLocale(c.Request().Context(), principal, req))
}

// UploadLogo handles POST /v1/tenant/logo (multipart form, field "logo")
func (h *TenantHandlers) UploadLogo(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return common.SendUnauthorizedError(c, "Not authenticated")
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		return common.SendBadRequestError(c, "Missing logo file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return common.SendBadRequestError(c, "Could not read logo file")
	}
	defer file.Close()

	upload := services.LogoUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	}
	return respond(c, http.StatusOK, h.tenantService.UploadLogo(c.Request().Context(), principal, upload))
}
