// AngelaMos | 2026
// repository.go

package apikey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, id string) (*APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	List(ctx context.Context, filter Filter, page core.PageParams) ([]APIKey, int, error)
	Revoke(ctx context.Context, id string) (*APIKey, error)
	TouchLastUsed(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const keyColumns = `id, name, key_prefix, key_hash, permissions, tenant_id, created_by,
		       is_active, expires_at, last_used_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, key *APIKey) error {
	query := `
		INSERT INTO api_keys (name, key_prefix, key_hash, permissions, tenant_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + keyColumns

	err := r.db.GetContext(ctx, key, query,
		key.Name,
		key.KeyPrefix,
		key.KeyHash,
		key.Permissions,
		key.TenantID,
		key.CreatedBy,
		key.ExpiresAt,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create api key: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create api key: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE id = $1`

	var key APIKey
	err := r.db.GetContext(ctx, &key, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	return &key, nil
}

func (r *repository) GetByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	query := `SELECT ` + keyColumns + ` FROM api_keys WHERE key_prefix = $1`

	var key APIKey
	err := r.db.GetContext(ctx, &key, query, prefix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get api key by prefix: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}

	return &key, nil
}

func buildWhere(f Filter) (*core.Where, error) {
	w := &core.Where{}

	w.AddIf(f.TenantID, "tenant_id = ?")
	if f.Search != "" {
		w.Add("name ILIKE ?", "%"+core.EscapeLike(f.Search)+"%")
	}

	switch f.Status {
	case "":
	case StatusActive:
		w.Add("is_active = ?", true)
	case StatusRevoked:
		w.Add("is_active = ?", false)
	default:
		return nil, core.ValidationError("status must be one of [active revoked]")
	}

	return w, nil
}

func (r *repository) List(
	ctx context.Context,
	filter Filter,
	page core.PageParams,
) ([]APIKey, int, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM api_keys " + where.Clause()
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM api_keys %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, keyColumns, where.Clause(), where.Next(), where.Next()+1)

	keys, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, countQuery, args...)
			return n, err
		},
		func(ctx context.Context) ([]APIKey, error) {
			var rows []APIKey
			err := r.db.SelectContext(ctx, &rows, listQuery,
				append(args, page.Limit, page.Offset())...)
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list api keys: %w", err)
	}

	return keys, total, nil
}

// Revoke clears the active flag. Keys are kept so audit entries still resolve.
func (r *repository) Revoke(ctx context.Context, id string) (*APIKey, error) {
	query := `
		UPDATE api_keys
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + keyColumns

	var key APIKey
	err := r.db.GetContext(ctx, &key, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("revoke api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revoke api key: %w", err)
	}

	return &key, nil
}

func (r *repository) TouchLastUsed(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
