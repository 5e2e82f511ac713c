// Package tenantdb provides the scoped execution context that every
// tenant-scoped database operation must run inside. The scope is a
// single transaction carrying a transaction-local tenant marker; the
// row security policies read the marker and the restricted role keeps
// them in force.
package tenantdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inkwell/internal/common"
)

// ErrInvalidTenantID is returned when the tenant id is empty or not a
// canonical UUID. The check runs before any pool acquisition so a bad
// id can never reach set_config.
var ErrInvalidTenantID = errors.New("invalid tenant id")

// AppRole is the restricted database role every scoped transaction
// switches to. It is not a superuser and does not own the tables, so
// row security applies to it.
const AppRole = "inkwell_app"

// DB is the subset of pgxpool.Pool the runner needs. pgxmock
// satisfies it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Querier is anything that can run a query: a pool, a transaction, or
// a mock.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner is the interface services depend on, so tests can substitute
// a fake that invokes the unit of work directly.
type Runner interface {
	RunWithTenant(ctx context.Context, tenantID string, work func(pgx.Tx) error) error
}

type runner struct {
	db DB
}

// NewRunner returns a Runner backed by the given pool.
func NewRunner(db DB) Runner {
	return &runner{db: db}
}

// RunWithTenant executes work inside a transaction whose session is
// marked with the tenant id. The marker is transaction-local
// (set_config with is_local=true), so it vanishes on commit or
// rollback and can never leak onto a reused connection.
func (r *runner) RunWithTenant(ctx context.Context, tenantID string, work func(pgx.Tx) error) error {
	if tenantID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTenantID)
	}
	if _, err := common.ValidateUUID(tenantID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTenantID, tenantID)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tenant transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// SET LOCAL does not take bind parameters; the role name is a
	// compile-time constant, never caller input.
	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+AppRole); err != nil {
		return fmt.Errorf("[tenant %s] set role: %w", tenantID, err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.current_tenant_id', $1, true)", tenantID); err != nil {
		return fmt.Errorf("[tenant %s] set tenant marker: %w", tenantID, err)
	}

	if err := work(tx); err != nil {
		return fmt.Errorf("[tenant %s] %w", tenantID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("[tenant %s] commit: %w", tenantID, err)
	}
	return nil
}

// CurrentTenantID reads the tenant marker on the given handle. It
// returns empty when no marker is set, which is the expected state
// outside RunWithTenant.
func CurrentTenantID(ctx context.Context, q Querier) (string, error) {
	var id string
	err := q.QueryRow(ctx, "SELECT COALESCE(current_setting('app.current_tenant_id', true), '')").Scan(&id)
	if err != nil {
		return "", fmt.Errorf("read tenant marker: %w", err)
	}
	return id, nil
}

// ClearTenantContext resets the marker on the given handle. Only test
// teardown needs it; production code relies on transaction locality.
func ClearTenantContext(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, "RESET app.current_tenant_id"); err != nil {
		return fmt.Errorf("reset tenant marker: %w", err)
	}
	return nil
}
