// AngelaMos | 2026
// repository.go

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id string) (*Tenant, error)
	GetByCustomerID(ctx context.Context, customerID string) (*Tenant, error)
	GetByAccountID(ctx context.Context, accountID string) (*Tenant, error)
	Update(ctx context.Context, id string, patch *core.Patch) (*Tenant, error)
	SetStatus(ctx context.Context, id, from, to string) (*Tenant, error)
	SetOwner(ctx context.Context, tenantID, userID string, adopt bool) error
	List(ctx context.Context, filter Filter, page core.PageParams) ([]Tenant, int, error)
}

type repository struct {
	db core.TxDB
}

func NewRepository(db core.TxDB) Repository {
	return &repository{db: db}
}

const tenantColumns = `id, name, domain, status, plan, limits, settings,
		       processor_customer_id, connected_account_id, connected_account_status,
		       subscription_id, monthly_price, currency, next_billing_date, owner_id,
		       created_at, updated_at`

func (r *repository) Create(ctx context.Context, t *Tenant) error {
	query := `
		INSERT INTO tenants (name, domain, status, plan, limits, settings, monthly_price, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + tenantColumns

	err := r.db.GetContext(ctx, t, query,
		t.Name,
		t.Domain,
		t.Status,
		t.Plan,
		t.Limits,
		t.Settings,
		t.MonthlyPrice,
		t.Currency,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create tenant: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tenant: %w", err)
	}

	return nil
}

func (r *repository) getBy(ctx context.Context, op, column, value string) (*Tenant, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE %s = $1`, tenantColumns, column)

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return r.getBy(ctx, "get tenant", "id", id)
}

func (r *repository) GetByCustomerID(ctx context.Context, customerID string) (*Tenant, error) {
	return r.getBy(ctx, "get tenant by customer", "processor_customer_id", customerID)
}

func (r *repository) GetByAccountID(ctx context.Context, accountID string) (*Tenant, error) {
	return r.getBy(ctx, "get tenant by account", "connected_account_id", accountID)
}

func (r *repository) Update(ctx context.Context, id string, patch *core.Patch) (*Tenant, error) {
	where := &core.Where{}
	where.Add("id = ?", id)

	return r.update(ctx, "update tenant", patch, where)
}

// SetStatus only applies when the row is still in from, so concurrent
// transitions cannot skip a state.
func (r *repository) SetStatus(ctx context.Context, id, from, to string) (*Tenant, error) {
	where := &core.Where{}
	where.Add("id = ?", id)
	where.Add("status = ?", from)

	t, err := r.update(ctx, "set tenant status", core.NewPatch().Set("status", to), where)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.ConflictError("tenant status changed concurrently")
	}
	return t, err
}

func (r *repository) update(ctx context.Context, op string, patch *core.Patch, where *core.Where) (*Tenant, error) {
	query, args := patch.Build("tenants", where, tenantColumns)

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}

// SetOwner moves the tenant_owner role to userID in one transaction. The
// previous owner keeps access as an admin. With adopt set, a user outside
// every tenant joins this one.
func (r *repository) SetOwner(ctx context.Context, tenantID, userID string, adopt bool) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current sql.NullString
		err := tx.GetContext(ctx, &current,
			`SELECT owner_id FROM tenants WHERE id = $1 FOR UPDATE`, tenantID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("set owner: tenant: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("set owner: lock tenant: %w", err)
		}

		var target struct {
			TenantID sql.NullString `db:"tenant_id"`
			IsActive bool           `db:"is_active"`
		}
		err = tx.GetContext(ctx, &target,
			`SELECT tenant_id, is_active FROM users WHERE id = $1 FOR UPDATE`, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("set owner: user: %w", core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("set owner: lock user: %w", err)
		}

		switch {
		case !target.IsActive:
			return core.ValidationError("new owner must be an active user")
		case target.TenantID.Valid && target.TenantID.String != tenantID:
			return core.ForbiddenError("user belongs to another tenant")
		case !target.TenantID.Valid && !adopt:
			return core.ValidationError("new owner must be a member of the tenant")
		}

		if current.Valid && current.String == userID {
			return nil
		}

		if current.Valid {
			_, err = tx.ExecContext(ctx, `
				UPDATE users
				SET roles = CASE
				        WHEN roles @> '["admin"]'::jsonb THEN roles - 'tenant_owner'
				        ELSE (roles - 'tenant_owner') || '["admin"]'::jsonb
				    END,
				    updated_at = NOW()
				WHERE id = $1`, current.String)
			if err != nil {
				return fmt.Errorf("set owner: demote previous owner: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET roles = (roles - $2::text) || jsonb_build_array($2::text),
			    tenant_id = $3,
			    updated_at = NOW()
			WHERE id = $1`, userID, authz.RoleTenantOwner, tenantID)
		if err != nil {
			return fmt.Errorf("set owner: promote user: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tenants SET owner_id = $2, updated_at = NOW() WHERE id = $1`, tenantID, userID)
		if err != nil {
			return fmt.Errorf("set owner: update tenant: %w", err)
		}

		return nil
	})
}

func buildWhere(f Filter) *core.Where {
	w := &core.Where{}
	if f.Search != "" {
		pattern := "%" + core.EscapeLike(f.Search) + "%"
		w.Add("(name ILIKE ? OR domain ILIKE ?)", pattern, pattern)
	}
	w.AddIf(f.Status, "status = ?")
	w.AddIf(f.Plan, "plan = ?")
	if f.From != nil {
		w.Add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.Add("created_at <= ?", *f.To)
	}
	return w
}

func (r *repository) List(
	ctx context.Context,
	filter Filter,
	page core.PageParams,
) ([]Tenant, int, error) {
	where := buildWhere(filter)
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM tenants " + where.Clause()
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM tenants %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, tenantColumns, where.Clause(), where.Next(), where.Next()+1)

	tenants, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, countQuery, args...)
			return n, err
		},
		func(ctx context.Context) ([]Tenant, error) {
			var rows []Tenant
			err := r.db.SelectContext(ctx, &rows, listQuery,
				append(args, page.Limit, page.Offset())...)
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}

	return tenants, total, nil
}
