package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwell/internal/authz"
	"inkwell/internal/caching"
	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repositories"
	"inkwell/internal/tenantdb"
)

// ProvisioningService turns identity-provider lifecycle events into
// registry state. Handlers return nil for events that were handled or
// safely ignored; a non-nil error tells the delivery system to retry.
type ProvisioningService interface {
	HandleEvent(ctx context.Context, evt identity.Event) error
}

type provisioningService struct {
	pool        repositories.DB
	runner      tenantdb.Runner
	tenantRepo  repositories.TenantRepository
	featureRepo repositories.FeatureRepository
	userRepo    repositories.UserRepository
	cache       caching.CacheService
}

func NewProvisioningService(pool repositories.DB, runner tenantdb.Runner,
	tenantRepo repositories.TenantRepository, featureRepo repositories.FeatureRepository,
	userRepo repositories.UserRepository, cache caching.CacheService) ProvisioningService {
	return &provisioningService{
		pool:        pool,
		runner:      runner,
		tenantRepo:  tenantRepo,
		featureRepo: featureRepo,
		userRepo:    userRepo,
		cache:       cache,
	}
}

func (s *provisioningService) HandleEvent(ctx context.Context, evt identity.Event) error {
	switch evt.Type {
	case identity.EventOrganizationCreated:
		var data identity.OrganizationData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			return fmt.Errorf("decode organization.created: %w", err)
		}
		return s.handleOrganizationCreated(ctx, data)
	case identity.EventOrganizationUpdated:
		var data identity.OrganizationData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			return fmt.Errorf("decode organization.updated: %w", err)
		}
		return s.handleOrganizationUpdated(ctx, data)
	case identity.EventMembershipCreated:
		var data identity.MembershipData
		if err := json.Unmarshal(evt.Data, &data); err != nil {
			return fmt.Errorf("decode membership.created: %w", err)
		}
		return s.handleMembershipCreated(ctx, data)
	case identity.EventUserCreated, identity.EventUserUpdated:
		// User profile sync is not registry state; acknowledged only.
		log.Printf("identity event %s acknowledged", evt.Type)
		return nil
	default:
		log.Printf("identity event %s ignored", evt.Type)
		return nil
	}
}

// handleOrganizationCreated provisions a tenant. Deliveries are
// at-least-once, so the registry lookup is the idempotency guard: a
// handle that already resolves means a duplicate, not an error.
func (s *provisioningService) handleOrganizationCreated(ctx context.Context, data identity.OrganizationData) error {
	if data.ID == "" {
		return fmt.Errorf("organization.created without an id")
	}

	existing, err := s.tenantRepo.LookupIDByOrgID(ctx, s.pool, data.ID)
	if err == nil {
		log.Printf("tenant for org %s already provisioned as %s, skipping", data.ID, existing)
		return nil
	}
	if !errors.Is(err, repositories.ErrTenantNotFound) {
		return fmt.Errorf("idempotency check for org %s: %w", data.ID, err)
	}

	tenantID := uuid.New()
	orgID := data.ID
	name := data.Name
	if name == "" {
		name = data.Slug
	}
	tier := data.PublicMetadata.Tier
	if tier == "" {
		tier = models.TierStarter
	}

	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		tenant := &models.Tenant{
			ID:       tenantID,
			Name:     name,
			OrgID:    &orgID,
			Status:   models.TenantStatusActive,
			Settings: models.DefaultTenantSettings(),
		}
		if err := s.tenantRepo.Create(ctx, tx, tenant); err != nil {
			return err
		}
		return s.featureRepo.Seed(ctx, tx, tenantID, models.TierFeatures(tier))
	})
	if err != nil {
		return fmt.Errorf("provision tenant for org %s: %w", data.ID, err)
	}

	// A stale negative cache entry would hide the new tenant.
	if cacheErr := s.cache.DeleteOrgMapping(ctx, data.ID); cacheErr != nil {
		log.Printf("WARN: could not invalidate org mapping for %s: %v", data.ID, cacheErr)
	}

	log.Printf("provisioned tenant %s for org %s (%s tier)", tenantID, data.ID, tier)
	return nil
}

func (s *provisioningService) handleOrganizationUpdated(ctx context.Context, data identity.OrganizationData) error {
	if data.ID == "" || data.Name == "" {
		return nil
	}
	tenantID, err := s.tenantRepo.LookupIDByOrgID(ctx, s.pool, data.ID)
	if errors.Is(err, repositories.ErrTenantNotFound) {
		log.Printf("organization.updated for unknown org %s, ignoring", data.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup org %s: %w", data.ID, err)
	}

	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		return s.tenantRepo.UpdateName(ctx, tx, tenantID, data.Name)
	})
	if err != nil {
		return fmt.Errorf("rename tenant %s: %w", tenantID, err)
	}
	return nil
}

// handleMembershipCreated activates the pending user row created at
// invitation time, binding the provider's user id to it.
func (s *provisioningService) handleMembershipCreated(ctx context.Context, data identity.MembershipData) error {
	orgID := data.Organization.ID
	email := data.PublicUserData.Email
	if orgID == "" || email == "" {
		return fmt.Errorf("membership.created missing org or email")
	}
	if _, err := authz.ParseRole(data.Role); err != nil {
		return fmt.Errorf("membership.created for org %s: %w", orgID, err)
	}

	tenantID, err := s.tenantRepo.LookupIDByOrgID(ctx, s.pool, orgID)
	if errors.Is(err, repositories.ErrTenantNotFound) {
		log.Printf("membership.created for unknown org %s, ignoring", orgID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup org %s: %w", orgID, err)
	}

	err = s.runner.RunWithTenant(ctx, tenantID.String(), func(tx pgx.Tx) error {
		return s.userRepo.Activate(ctx, tx, tenantID, email, data.PublicUserData.UserID, time.Now())
	})
	if errors.Is(err, repositories.ErrUserNotFound) {
		// Membership created outside the invite flow; nothing to activate.
		log.Printf("no pending user %s in tenant %s, ignoring membership", email, tenantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("activate user %s in tenant %s: %w", email, tenantID, err)
	}

	log.Printf("activated user %s in tenant %s", email, tenantID)
	return nil
}
