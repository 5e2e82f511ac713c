package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/models"
)

func TestSeedStarterTier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFeatureRepository()
	tenantID := uuid.New()
	features := models.TierFeatures(models.TierStarter)

	limits := map[string]int{
		"titles_limit":     50,
		"users_limit":      5,
		"orders_per_month": 100,
	}
	require.Len(t, features, 3)
	for _, f := range features {
		want, ok := limits[f.FeatureKey]
		require.True(t, ok, "unexpected feature %s", f.FeatureKey)
		require.NotNil(t, f.Limit)
		assert.Equal(t, want, *f.Limit)

		mock.ExpectExec("INSERT INTO tenant_features").
			WithArgs(pgxmock.AnyArg(), tenantID, f.FeatureKey, true, f.Limit).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	err = repo.Seed(context.Background(), mock, tenantID, features)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnterpriseTierIsUnlimited(t *testing.T) {
	features := models.TierFeatures(models.TierEnterprise)
	require.Len(t, features, 3)
	for _, f := range features {
		assert.True(t, f.Enabled)
		assert.Nil(t, f.Limit, "%s should have no limit", f.FeatureKey)
	}
}

func TestProfessionalTierLimits(t *testing.T) {
	features := models.TierFeatures(models.TierProfessional)
	byKey := map[string]*int{}
	for _, f := range features {
		byKey[f.FeatureKey] = f.Limit
	}
	require.NotNil(t, byKey["titles_limit"])
	require.NotNil(t, byKey["users_limit"])
	require.NotNil(t, byKey["orders_per_month"])
	assert.Equal(t, 500, *byKey["titles_limit"])
	assert.Equal(t, 25, *byKey["users_limit"])
	assert.Equal(t, 5000, *byKey["orders_per_month"])
}

func TestUnknownTierFallsBackToStarter(t *testing.T) {
	assert.Equal(t, models.TierFeatures(models.TierStarter), models.TierFeatures("gold-plated"))
}

func TestSeedIsIdempotent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewFeatureRepository()
	tenantID := uuid.New()

	// ON CONFLICT DO NOTHING: a reseed reports zero rows, no error.
	mock.ExpectExec("INSERT INTO tenant_features").
		WithArgs(pgxmock.AnyArg(), tenantID, "titles_limit", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err = repo.Seed(context.Background(), mock, tenantID, models.TierFeatures(models.TierStarter)[:1])
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
