package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwell/internal/models"
)

var ErrFeatureNotFound = errors.New("feature not found")

// FeatureRepository stores per-tenant feature flags and usage limits.
// All operations run on the scoped transaction handle.
type FeatureRepository interface {
	Seed(ctx context.Context, db DB, tenantID uuid.UUID, features []models.TenantFeature) error
	ListByTenant(ctx context.Context, db DB, tenantID uuid.UUID) ([]models.TenantFeature, error)
	Get(ctx context.Context, db DB, tenantID uuid.UUID, key string) (*models.TenantFeature, error)
}

type featureRepository struct{}

func NewFeatureRepository() FeatureRepository {
	return &featureRepository{}
}

func (r *featureRepository) Seed(ctx context.Context, db DB, tenantID uuid.UUID, features []models.TenantFeature) error {
	query := `INSERT INTO tenant_features (id, tenant_id, feature_key, enabled, feature_limit)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, feature_key) DO NOTHING`
	for _, f := range features {
		if _, err := db.Exec(ctx, query, uuid.New(), tenantID, f.FeatureKey, f.Enabled, f.Limit); err != nil {
			return fmt.Errorf("seed feature %s: %w", f.FeatureKey, err)
		}
	}
	return nil
}

func (r *featureRepository) ListByTenant(ctx context.Context, db DB, tenantID uuid.UUID) ([]models.TenantFeature, error) {
	query := `SELECT id, tenant_id, feature_key, enabled, feature_limit, created_at, updated_at
		FROM tenant_features WHERE tenant_id = $1 ORDER BY feature_key`
	rows, err := db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var features []models.TenantFeature
	for rows.Next() {
		var f models.TenantFeature
		if err := rows.Scan(&f.ID, &f.TenantID, &f.FeatureKey, &f.Enabled, &f.Limit, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

func (r *featureRepository) Get(ctx context.Context, db DB, tenantID uuid.UUID, key string) (*models.TenantFeature, error) {
	query := `SELECT id, tenant_id, feature_key, enabled, feature_limit, created_at, updated_at
		FROM tenant_features WHERE tenant_id = $1 AND feature_key = $2`
	var f models.TenantFeature
	err := db.QueryRow(ctx, query, tenantID, key).Scan(&f.ID, &f.TenantID, &f.FeatureKey, &f.Enabled, &f.Limit, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFeatureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get feature: %w", err)
	}
	return &f, nil
}
