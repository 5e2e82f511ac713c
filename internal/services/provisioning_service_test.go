package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repositories"
)

type ProvisioningServiceTestSuite struct {
	suite.Suite
	tenantRepo  *MockTenantRepository
	featureRepo *MockFeatureRepository
	userRepo    *MockUserRepository
	cache       *MockCacheService
	runner      *fakeRunner
	service     ProvisioningService
}

func (s *ProvisioningServiceTestSuite) SetupTest() {
	s.tenantRepo = new(MockTenantRepository)
	s.featureRepo = new(MockFeatureRepository)
	s.userRepo = new(MockUserRepository)
	s.cache = new(MockCacheService)
	s.runner = &fakeRunner{}
	s.service = NewProvisioningService(nil, s.runner, s.tenantRepo, s.featureRepo, s.userRepo, s.cache)
}

func orgCreatedEvent(orgID, name, tier string) identity.Event {
	data, _ := json.Marshal(map[string]any{
		"id":   orgID,
		"name": name,
		"public_metadata": map[string]string{
			"tier": tier,
		},
	})
	return identity.Event{Type: identity.EventOrganizationCreated, Data: data}
}

func (s *ProvisioningServiceTestSuite) TestOrganizationCreatedProvisionsTenant() {
	s.tenantRepo.On("LookupIDByOrgID", mock.Anything, mock.Anything, "org_2new").
		Return(uuid.Nil, repositories.ErrTenantNotFound)
	s.tenantRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(t *models.Tenant) bool {
		return t.Name == "Lighthouse Press" &&
			t.OrgID != nil && *t.OrgID == "org_2new" &&
			t.Status == models.TenantStatusActive &&
			t.Settings.Locale.Currency == "USD"
	})).Return(nil)
	s.featureRepo.On("Seed", mock.Anything, mock.Anything, mock.Anything,
		models.TierFeatures(models.TierStarter)).Return(nil)
	s.cache.On("DeleteOrgMapping", mock.Anything, "org_2new").Return(nil)

	err := s.service.HandleEvent(context.Background(), orgCreatedEvent("org_2new", "Lighthouse Press", ""))

	s.NoError(err)
	s.Len(s.runner.tenantIDs, 1)
	s.tenantRepo.AssertExpectations(s.T())
	s.featureRepo.AssertExpectations(s.T())
}

func (s *ProvisioningServiceTestSuite) TestDuplicateDeliveryIsNoOp() {
	existing := uuid.New()
	s.tenantRepo.On("LookupIDByOrgID", mock.Anything, mock.Anything, "org_2new").
		Return(existing, nil)

	err := s.service.HandleEvent(context.Background(), orgCreatedEvent("org_2new", "Lighthouse Press", ""))

	s.NoError(err)
	// No transaction, no second seed.
	s.Empty(s.runner.tenantIDs)
	s.tenantRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything, mock.Anything)
	s.featureRepo.AssertNotCalled(s.T(), "Seed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ProvisioningServiceTestSuite) TestIdempotencyCheckFailureIsRetried() {
	s.tenantRepo.On("LookupIDByOrgID", mock.Anything, mock.Anything, "org_2new").
		Return(uuid.Nil, errors.New("connection refused"))

	err := s.service.HandleEvent(context.Background(), orgCreatedEvent("org_2new", "Lighthouse Press", ""))

	// Infrastructure failures must surface so the provider redelivers.
	s.Error(err)
	s.Empty(s.runner.tenantIDs)
}

func (s *ProvisioningServiceTestSuite) TestProfessionalTierSeeded() {
	s.tenantRepo.On("LookupIDByOrgID", mock.Anything, mock.Anything, "org_2pro").
		Return(uuid.Nil, repositories.ErrTenantNotFound)
	s.tenantRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.featureRepo.On("Seed", mock.Anything, mock.Anything, mock.Anything,
		models.TierFeatures(models.TierProfessional)).Return(nil)
	s.cache.On("DeleteOrgMapping", mock.Anything, "org_2pro").Return(nil)

	err := s.service.HandleEvent(context.Background(), orgCreatedEvent("org_2pro", "Pro Press", "professional"))

	s.NoError(err)
	s.featureRepo.AssertExpectations(s.T())
}

func (s *ProvisioningServiceTestSuite) TestMembershipCreatedActivatesPendingUser() {
	tenantID := uuid.New()
	s.tenantRepo.On("LookupIDByOrgID", mock.Anything, mock.Anything, "org_2new").
		Return(tenantID, nil)
	s.userRepo.On("Activate", mock.Anything, mock.Anything, tenantID,
		"editor@lighthouse.press", "user_2xyz", mock.Anything).Return(nil)

	data, _ := json.Marshal(map[string]any{
		"organization": map[string]string{"id": "org_2new"},
		"public_user_data": map[string]string{
			"user_id":    "user_2xyz",
			"identifier": "editor@lighthouse.press",
		},
		"role": "managing_editor",
	})
	err := s.service.HandleEvent(context.Background(), identity.Event{
		Type: identity.EventMembershipCreated,
		Data: data,
	})

	s.NoError(err)
	s.Equal([]string{tenantID.String()}, s.runner.tenantIDs)
	s.userRepo.AssertExpectations(s.T())
}

func (s *ProvisioningServiceTestSuite) TestMembershipWithUnknownRoleRejected() {
	data, _ := json.Marshal(map[string]any{
		"organization": map[string]string{"id": "org_2new"},
		"public_user_data": map[string]string{
			"user_id":    "user_2xyz",
			"identifier": "editor@lighthouse.press",
		},
		"role": "grand_vizier",
	})
	err := s.service.HandleEvent(context.Background(), identity.Event{
		Type: identity.EventMembershipCreated,
		Data: data,
	})

	s.Error(err)
	s.Empty(s.runner.tenantIDs)
}

func (s *ProvisioningServiceTestSuite) TestUserEventsAcknowledged() {
	err := s.service.HandleEvent(context.Background(), identity.Event{
		Type: identity.EventUserCreated,
		Data: json.RawMessage(`{"id":"user_2xyz"}`),
	})
	s.NoError(err)

	err = s.service.HandleEvent(context.Background(), identity.Event{
		Type: "session.created",
		Data: json.RawMessage(`{}`),
	})
	s.NoError(err)
}

func TestProvisioningServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProvisioningServiceTestSuite))
}
