package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repositories"
)

// fakeRunner stands in for the scoped execution context: it records
// each tenant id and hands the unit of work a nil transaction, which
// the mocked repositories never touch.
type fakeRunner struct {
	tenantIDs []string
	failWith  error
}

func (f *fakeRunner) RunWithTenant(ctx context.Context, tenantID string, work func(pgx.Tx) error) error {
	f.tenantIDs = append(f.tenantIDs, tenantID)
	if f.failWith != nil {
		return f.failWith
	}
	return work(nil)
}

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, db repositories.DB, tenant *models.Tenant) error {
	args := m.Called(ctx, db, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, db repositories.DB, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetByOrgID(ctx context.Context, db repositories.DB, orgID string) (*models.Tenant, error) {
	args := m.Called(ctx, db, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) LookupIDByOrgID(ctx context.Context, db repositories.DB, orgID string) (uuid.UUID, error) {
	args := m.Called(ctx, db, orgID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTenantRepository) UpdateSettings(ctx context.Context, db repositories.DB, id uuid.UUID, settings models.TenantSettings) error {
	args := m.Called(ctx, db, id, settings)
	return args.Error(0)
}

func (m *MockTenantRepository) UpdateName(ctx context.Context, db repositories.DB, id uuid.UUID, name string) error {
	args := m.Called(ctx, db, id, name)
	return args.Error(0)
}

func (m *MockTenantRepository) List(ctx context.Context, db repositories.DB) ([]models.Tenant, error) {
	args := m.Called(ctx, db)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tenant), args.Error(1)
}

type MockFeatureRepository struct {
	mock.Mock
}

func (m *MockFeatureRepository) Seed(ctx context.Context, db repositories.DB, tenantID uuid.UUID, features []models.TenantFeature) error {
	args := m.Called(ctx, db, tenantID, features)
	return args.Error(0)
}

func (m *MockFeatureRepository) ListByTenant(ctx context.Context, db repositories.DB, tenantID uuid.UUID) ([]models.TenantFeature, error) {
	args := m.Called(ctx, db, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TenantFeature), args.Error(1)
}

func (m *MockFeatureRepository) Get(ctx context.Context, db repositories.DB, tenantID uuid.UUID, key string) (*models.TenantFeature, error) {
	args := m.Called(ctx, db, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenantFeature), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateInvited(ctx context.Context, db repositories.DB, user *models.User) error {
	args := m.Called(ctx, db, user)
	return args.Error(0)
}

func (m *MockUserRepository) Activate(ctx context.Context, db repositories.DB, tenantID uuid.UUID, email, identityUserID string, lastLogin time.Time) error {
	args := m.Called(ctx, db, tenantID, email, identityUserID, lastLogin)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, db repositories.DB, tenantID uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, db, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, db repositories.DB, tenantID uuid.UUID) ([]models.User, error) {
	args := m.Called(ctx, db, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) CountActive(ctx context.Context, db repositories.DB, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, db, tenantID)
	return args.Int(0), args.Error(1)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, db repositories.DB, tenantID uuid.UUID, eventType string, payload any) (uuid.UUID, error) {
	args := m.Called(ctx, db, tenantID, eventType, payload)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockOutboxRepository) ClaimDue(ctx context.Context, db repositories.DB, limit int) ([]models.OutboxEvent, error) {
	args := m.Called(ctx, db, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, db repositories.DB, id uuid.UUID) error {
	args := m.Called(ctx, db, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, db repositories.DB, id uuid.UUID, deliveryErr string, nextAttempt time.Time) error {
	args := m.Called(ctx, db, id, deliveryErr, nextAttempt)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkDead(ctx context.Context, db repositories.DB, id uuid.UUID, deliveryErr string) error {
	args := m.Called(ctx, db, id, deliveryErr)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetOrgMapping(ctx context.Context, orgID string) (uuid.UUID, bool, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(uuid.UUID), args.Bool(1), args.Error(2)
}

func (m *MockCacheService) SetOrgMapping(ctx context.Context, orgID string, tenantID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, orgID, tenantID, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteOrgMapping(ctx context.Context, orgID string) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) CreateInvitation(ctx context.Context, orgID, email, role string) (*identity.InvitationResult, error) {
	args := m.Called(ctx, orgID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.InvitationResult), args.Error(1)
}
