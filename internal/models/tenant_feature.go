package models

import (
	"time"

	"github.com/google/uuid"
)

// Feature keys seeded at provisioning time.
const (
	FeatureTitlesLimit    = "titles_limit"
	FeatureUsersLimit     = "users_limit"
	FeatureOrdersPerMonth = "orders_per_month"
)

// Subscription tiers.
const (
	TierStarter      = "starter"
	TierProfessional = "professional"
	TierEnterprise   = "enterprise"
)

// TenantFeature is one feature flag or usage limit for a tenant.
// A nil Limit means unlimited.
type TenantFeature struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FeatureKey string    `json:"feature_key" db:"feature_key"`
	Enabled    bool      `json:"enabled" db:"enabled"`
	Limit      *int      `json:"limit" db:"feature_limit"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func intPtr(n int) *int { return &n }

// TierFeatures returns the feature rows seeded for the given tier.
// Unknown tiers fall back to starter.
func TierFeatures(tier string) []TenantFeature {
	switch tier {
	case TierProfessional:
		return []TenantFeature{
			{FeatureKey: FeatureTitlesLimit, Enabled: true, Limit: intPtr(500)},
			{FeatureKey: FeatureUsersLimit, Enabled: true, Limit: intPtr(25)},
			{FeatureKey: FeatureOrdersPerMonth, Enabled: true, Limit: intPtr(5000)},
		}
	case TierEnterprise:
		return []TenantFeature{
			{FeatureKey: FeatureTitlesLimit, Enabled: true, Limit: nil},
			{FeatureKey: FeatureUsersLimit, Enabled: true, Limit: nil},
			{FeatureKey: FeatureOrdersPerMonth, Enabled: true, Limit: nil},
		}
	default:
		return []TenantFeature{
			{FeatureKey: FeatureTitlesLimit, Enabled: true, Limit: intPtr(50)},
			{FeatureKey: FeatureUsersLimit, Enabled: true, Limit: intPtr(5)},
			{FeatureKey: FeatureOrdersPerMonth, Enabled: true, Limit: intPtr(100)},
		}
	}
}
