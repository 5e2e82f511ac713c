package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant lifecycle statuses.
const (
	TenantStatusActive    = "active"
	TenantStatusTrial     = "trial"
	TenantStatusSuspended = "suspended"
)

// Tenant is one publisher organization. TenantID is self-referential
// (always equal to ID) so the tenants table participates in the same
// row isolation policy as every other tenant-scoped table.
type Tenant struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	OrgID     *string        `json:"org_id" db:"org_id"` // identity-provider organization handle
	Status    string         `json:"status" db:"status"`
	Settings  TenantSettings `json:"settings" db:"settings"`
	TenantID  uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// TenantSettings is the per-tenant configuration document stored as
// JSONB on the tenants row.
type TenantSettings struct {
	Branding   BrandingSettings   `json:"branding"`
	Locale     LocaleSettings     `json:"locale"`
	Onboarding OnboardingSettings `json:"onboarding"`
}

type BrandingSettings struct {
	LogoURL        string `json:"logoUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
}

type LocaleSettings struct {
	Timezone          string `json:"timezone,omitempty"`
	Currency          string `json:"currency,omitempty"`
	MeasurementSystem string `json:"measurementSystem,omitempty"`
	Language          string `json:"language,omitempty"`
}

type OnboardingSettings struct {
	CompletedSteps []string `json:"completedSteps"`
	CurrentStep    string   `json:"currentStep,omitempty"`
}

// DefaultTenantSettings is the settings document seeded for a newly
// provisioned tenant.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Branding: BrandingSettings{
			PrimaryColor:   "#1e3a8a",
			SecondaryColor: "#d97706",
		},
		Locale: LocaleSettings{
			Timezone:          "America/New_York",
			Currency:          "USD",
			MeasurementSystem: "imperial",
			Language:          "en-US",
		},
		Onboarding: OnboardingSettings{
			CompletedSteps: []string{},
			CurrentStep:    "welcome",
		},
	}
}
