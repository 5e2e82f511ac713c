package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inkwell/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail marks a per-tenant email uniqueness violation.
	ErrDuplicateEmail = errors.New("email already in use for this tenant")
)

// UserRepository stores tenant members. Every operation runs on the
// scoped transaction handle; the row policies scope results to the
// transaction's tenant.
type UserRepository interface {
	CreateInvited(ctx context.Context, db DB, user *models.User) error
	Activate(ctx context.Context, db DB, tenantID uuid.UUID, email, identityUserID string, lastLogin time.Time) error
	GetByEmail(ctx context.Context, db DB, tenantID uuid.UUID, email string) (*models.User, error)
	List(ctx context.Context, db DB, tenantID uuid.UUID) ([]models.User, error)
	CountActive(ctx context.Context, db DB, tenantID uuid.UUID) (int, error)
}

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) CreateInvited(ctx context.Context, db DB, user *models.User) error {
	query := `INSERT INTO users (id, identity_user_id, email, first_name, last_name, role, status, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(ctx, query, user.ID, user.IdentityUserID, user.Email,
		user.FirstName, user.LastName, user.Role, models.UserStatusPending, user.TenantID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert invited user: %w", err)
	}
	return nil
}

func (r *userRepository) Activate(ctx context.Context, db DB, tenantID uuid.UUID, email, identityUserID string, lastLogin time.Time) error {
	query := `UPDATE users SET identity_user_id = $1, status = $2, last_login = $3, updated_at = NOW()
		WHERE tenant_id = $4 AND email = $5 AND status = $6`
	tag, err := db.Exec(ctx, query, identityUserID, models.UserStatusActive, lastLogin,
		tenantID, email, models.UserStatusPending)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, db DB, tenantID uuid.UUID, email string) (*models.User, error) {
	query := `SELECT id, identity_user_id, email, first_name, last_name, role, status, last_login, tenant_id, created_at, updated_at
		FROM users WHERE tenant_id = $1 AND email = $2`
	var u models.User
	err := db.QueryRow(ctx, query, tenantID, email).Scan(&u.ID, &u.IdentityUserID, &u.Email,
		&u.FirstName, &u.LastName, &u.Role, &u.Status, &u.LastLogin, &u.TenantID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *userRepository) List(ctx context.Context, db DB, tenantID uuid.UUID) ([]models.User, error) {
	query := `SELECT id, identity_user_id, email, first_name, last_name, role, status, last_login, tenant_id, created_at, updated_at
		FROM users WHERE tenant_id = $1 ORDER BY created_at`
	rows, err := db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.IdentityUserID, &u.Email, &u.FirstName, &u.LastName,
			&u.Role, &u.Status, &u.LastLogin, &u.TenantID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) CountActive(ctx context.Context, db DB, tenantID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND status = $2`,
		tenantID, models.UserStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}
