package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwell/internal/authz"
	"inkwell/internal/caching"
	"inkwell/internal/models"
	"inkwell/internal/repositories"
	"inkwell/internal/storage"
	"inkwell/internal/tenantdb"
)

const orgMappingTTL = 5 * time.Minute

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TenantService resolves organization handles to tenants and manages
// tenant settings.
type TenantService interface {
	// ResolveOrg maps an identity-provider organization handle to the
	// tenant id. Unknown handles return repositories.ErrTenantNotFound.
	ResolveOrg(ctx context.Context, orgID string) (uuid.UUID, error)
	Get(ctx context.Context, principal authz.Principal) ActionResult
	UpdateBranding(ctx context.Context, principal authz.Principal, req BrandingRequest) ActionResult
	UpdateLocale(ctx context.Context, principal authz.Principal, req LocaleRequest) ActionResult
	UploadLogo(ctx context.Context, principal authz.Principal, req LogoUpload) ActionResult
}

type BrandingRequest struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

type LocaleRequest struct {
	Timezone          string `json:"timezone"`
	Currency          string `json:"currency"`
	MeasurementSystem string `json:"measurementSystem"`
	Language          string `json:"language"`
}

type LogoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type tenantService struct {
	pool        repositories.DB
	runner      tenantdb.Runner
	tenantRepo  repositories.TenantRepository
	featureRepo repositories.FeatureRepository
	cache       caching.CacheService
	logos       storage.LogoStore
}

func NewTenantService(pool repositories.DB, runner tenantdb.Runner, tenantRepo repositories.TenantRepository,
	featureRepo repositories.FeatureRepository, cache caching.CacheService, logos storage.LogoStore) TenantService {
	return &tenantService{
		pool:        pool,
		runner:      runner,
		tenantRepo:  tenantRepo,
		featureRepo: featureRepo,
		cache:       cache,
		logos:       logos,
	}
}

func (s *tenantService) ResolveOrg(ctx context.Context, orgID string) (uuid.UUID, error) {
	if orgID == "" {
		return uuid.Nil, fmt.Errorf("empty organization handle")
	}

	if id, ok, err := s.cache.GetOrgMapping(ctx, orgID); err == nil && ok {
		return id, nil
	} else if err != nil {
		log.Printf("WARN: org mapping cache read failed for %s: %v", orgID, err)
	}

	// Registry lookup runs on the pool: the caller has no tenant
	// context yet, resolving the handle is how one is established.
	id, err := s.tenantRepo.LookupIDByOrgID(ctx, s.pool, orgID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.cache.SetOrgMapping(ctx, orgID, id, orgMappingTTL); err != nil {
		log.Printf("WARN: org mapping cache write failed for %s: %v", orgID, err)
	}
	return id, nil
}

func (s *tenantService) Get(ctx context.Context, principal authz.Principal) ActionResult {
	tenantID, res, ok := s.resolve(ctx, principal)
	if !ok {
		return res
	}

	var tenant *models.Tenant
	var features []models.TenantFeature
	err := s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		var err error
		tenant, err = s.tenantRepo.GetByID(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		features, err = s.featureRepo.ListByTenant(ctx, tx, tenantID)
		return err
	})
	if errors.Is(err, repositories.ErrTenantNotFound) {
		return Failure(KindNotFound, "tenant not found")
	}
	if err != nil {
		log.Printf("ERROR: get tenant %s: %v", tenantID, err)
		return Failure(KindInternal, "could not load tenant")
	}
	if features == nil {
		features = []models.TenantFeature{}
	}
	return Success(map[string]any{
		"tenant":   tenant,
		"features": features,
	})
}

func (s *tenantService) UpdateBranding(ctx context.Context, principal authz.Principal, req BrandingRequest) ActionResult {
	if !authz.CanManageTenantSettings(principal.Role) {
		return Failure(KindUnauthorized, "only the publisher owner can change branding")
	}
	if req.PrimaryColor != "" && !hexColorRe.MatchString(req.PrimaryColor) {
		return Failure(KindValidation, "primaryColor must be a #rrggbb hex color")
	}
	if req.SecondaryColor != "" && !hexColorRe.MatchString(req.SecondaryColor) {
		return Failure(KindValidation, "secondaryColor must be a #rrggbb hex color")
	}

	return s.updateSettings(ctx, principal, func(settings *models.TenantSettings) {
		if req.PrimaryColor != "" {
			settings.Branding.PrimaryColor = req.PrimaryColor
		}
		if req.SecondaryColor != "" {
			settings.Branding.SecondaryColor = req.SecondaryColor
		}
	})
}

func (s *tenantService) UpdateLocale(ctx context.Context, principal authz.Principal, req LocaleRequest) ActionResult {
	if !authz.CanManageTenantSettings(principal.Role) {
		return Failure(KindUnauthorized, "only the publisher owner can change locale settings")
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return Failure(KindValidation, "unknown timezone")
		}
	}
	if req.MeasurementSystem != "" && req.MeasurementSystem != "imperial" && req.MeasurementSystem != "metric" {
		return Failure(KindValidation, "measurementSystem must be imperial or metric")
	}

	return s.updateSettings(ctx, principal, func(settings *models.TenantSettings) {
		if req.Timezone != "" {
			settings.Locale.Timezone = req.Timezone
		}
		if req.Currency != "" {
			settings.Locale.Currency = req.Currency
		}
		if req.MeasurementSystem != "" {
			settings.Locale.MeasurementSystem = req.MeasurementSystem
		}
		if req.Language != "" {
			settings.Locale.Language = req.Language
		}
	})
}

func (s *tenantService) UploadLogo(ctx context.Context, principal authz.Principal, req LogoUpload) ActionResult {
	if !authz.CanManageTenantSettings(principal.Role) {
		return Failure(KindUnauthorized, "only the publisher owner can change branding")
	}
	if req.Size <= 0 || req.Size > 5<<20 {
		return Failure(KindValidation, "logo must be between 1 byte and 5 MB")
	}
	switch req.ContentType {
	case "image/png", "image/jpeg", "image/svg+xml", "image/webp":
	default:
		return Failure(KindValidation, "logo must be png, jpeg, svg or webp")
	}

	tenantID, res, ok := s.resolve(ctx, principal)
	if !ok {
		return res
	}

	url, err := s.logos.UploadLogo(ctx, tenantID, req.Filename, req.ContentType, req.Size, req.Body)
	if err != nil {
		log.Printf("ERROR: logo upload for tenant %s: %v", tenantID, err)
		return Failure(KindInternal, "could not store logo")
	}

	return s.updateSettings(ctx, principal, func(settings *models.TenantSettings) {
		settings.Branding.LogoURL = url
	})
}

// updateSettings does the read-merge-write of the settings document
// inside the tenant's scoped transaction.
func (s *tenantService) updateSettings(ctx context.Context, principal authz.Principal, merge func(*models.TenantSettings)) ActionResult {
	tenantID, res, ok := s.resolve(ctx, principal)
	if !ok {
		return res
	}

	var updated models.TenantSettings
	err := s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		tenant, err := s.tenantRepo.GetByID(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		settings := tenant.Settings
		merge(&settings)
		if err := s.tenantRepo.UpdateSettings(ctx, tx, tenantID, settings); err != nil {
			return err
		}
		updated = settings
		return nil
	})
	if errors.Is(err, repositories.ErrTenantNotFound) {
		return Failure(KindNotFound, "tenant not found")
	}
	if err != nil {
		log.Printf("ERROR: update settings for tenant %s: %v", tenantID, err)
		return Failure(KindInternal, "could not update settings")
	}
	return Success(updated)
}

func (s *tenantService) resolve(ctx context.Context, principal authz.Principal) (uuid.UUID, ActionResult, bool) {
	tenantID, err := s.ResolveOrg(ctx, principal.OrgID)
	if errors.Is(err, repositories.ErrTenantNotFound) {
		return uuid.Nil, Failure(KindNotFound, "your organization is not yet set up"), false
	}
	if err != nil {
		log.Printf("ERROR: resolve org %s: %v", principal.OrgID, err)
		return uuid.Nil, Failure(KindInternal, "could not resolve organization"), false
	}
	return tenantID, ActionResult{}, true
}
