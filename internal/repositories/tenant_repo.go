package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"inkwell/internal/models"
)

// ErrTenantNotFound marks a registry miss. An unknown organization
// handle is a normal outcome on the webhook and resolver paths, so
// callers branch on it with errors.Is.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantRepository is the tenant registry. Lookups by organization
// handle take the pool (they run before any tenant context exists);
// mutations take the scoped transaction handle.
type TenantRepository interface {
	Create(ctx context.Context, db DB, tenant *models.Tenant) error
	GetByID(ctx context.Context, db DB, id uuid.UUID) (*models.Tenant, error)
	GetByOrgID(ctx context.Context, db DB, orgID string) (*models.Tenant, error)
	LookupIDByOrgID(ctx context.Context, db DB, orgID string) (uuid.UUID, error)
	UpdateSettings(ctx context.Context, db DB, id uuid.UUID, settings models.TenantSettings) error
	UpdateName(ctx context.Context, db DB, id uuid.UUID, name string) error
	List(ctx context.Context, db DB) ([]models.Tenant, error)
}

type tenantRepository struct{}

func NewTenantRepository() TenantRepository {
	return &tenantRepository{}
}

func (r *tenantRepository) Create(ctx context.Context, db DB, tenant *models.Tenant) error {
	settings, err := json.Marshal(tenant.Settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	query := `INSERT INTO tenants (id, name, org_id, status, settings, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6)`
	// tenant_id = id: the registry row is scoped to the tenant it defines.
	_, err = db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.OrgID, tenant.Status, settings, tenant.ID)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, db DB, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT id, name, org_id, status, settings, tenant_id, created_at, updated_at
		FROM tenants WHERE id = $1`
	return r.scanOne(db.QueryRow(ctx, query, id))
}

func (r *tenantRepository) GetByOrgID(ctx context.Context, db DB, orgID string) (*models.Tenant, error) {
	query := `SELECT id, name, org_id, status, settings, tenant_id, created_at, updated_at
		FROM tenants WHERE org_id = $1`
	return r.scanOne(db.QueryRow(ctx, query, orgID))
}

func (r *tenantRepository) LookupIDByOrgID(ctx context.Context, db DB, orgID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRow(ctx, `SELECT id FROM tenants WHERE org_id = $1`, orgID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrTenantNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup tenant by org: %w", err)
	}
	return id, nil
}

func (r *tenantRepository) UpdateSettings(ctx context.Context, db DB, id uuid.UUID, settings models.TenantSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	query := `UPDATE tenants SET settings = $1, updated_at = NOW() WHERE id = $2`
	tag, err := db.Exec(ctx, query, raw, id)
	if err != nil {
		return fmt.Errorf("update tenant settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *tenantRepository) UpdateName(ctx context.Context, db DB, id uuid.UUID, name string) error {
	query := `UPDATE tenants SET name = $1, updated_at = NOW() WHERE id = $2`
	tag, err := db.Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("update tenant name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *tenantRepository) List(ctx context.Context, db DB) ([]models.Tenant, error) {
	query := `SELECT id, name, org_id, status, settings, tenant_id, created_at, updated_at
		FROM tenants ORDER BY created_at`
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		var settings []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.OrgID, &t.Status, &settings, &t.TenantID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		if len(settings) > 0 {
			if err := json.Unmarshal(settings, &t.Settings); err != nil {
				return nil, fmt.Errorf("unmarshal tenant settings: %w", err)
			}
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *tenantRepository) scanOne(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	var settings []byte
	err := row.Scan(&t.ID, &t.Name, &t.OrgID, &t.Status, &settings, &t.TenantID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal tenant settings: %w", err)
		}
	}
	return &t, nil
}
