// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetBySubject(ctx context.Context, subject string) (*User, error)
	UpsertLogin(ctx context.Context, user *User) error
	Update(ctx context.Context, id string, patch *core.Patch) (*User, error)
	List(ctx context.Context, filter Filter, page core.PageParams) ([]User, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `id, idp_subject, tenant_id, email, name, avatar_url, roles,
		       is_active, last_login_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (idp_subject, tenant_id, email, name, avatar_url, roles)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		user.IDPSubject,
		user.TenantID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.Roles,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetBySubject(ctx context.Context, subject string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE idp_subject = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, subject)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by subject: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by subject: %w", err)
	}

	return &user, nil
}

// UpsertLogin inserts a first-time user or refreshes the profile of a known
// subject. Stored roles and tenant survive later logins.
func (r *repository) UpsertLogin(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (idp_subject, tenant_id, email, name, avatar_url, roles, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (idp_subject) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
		    last_login_at = NOW(),
		    updated_at = NOW()
		RETURNING ` + userColumns

	err := r.db.GetContext(ctx, user, query,
		user.IDPSubject,
		user.TenantID,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.Roles,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("upsert user: email taken by another subject: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, id string, patch *core.Patch) (*User, error) {
	where := &core.Where{}
	where.Add("id = ?", id)

	query, args := patch.Build("users", where, userColumns)

	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return &user, nil
}

func buildWhere(f Filter) (*core.Where, error) {
	w := &core.Where{}

	if f.Search != "" {
		pattern := "%" + core.EscapeLike(f.Search) + "%"
		w.Add("(email ILIKE ? OR name ILIKE ?)", pattern, pattern)
	}
	w.AddIf(f.TenantID, "tenant_id = ?")

	if f.Role != "" {
		containment, err := json.Marshal([]string{f.Role})
		if err != nil {
			return nil, fmt.Errorf("encode role filter: %w", err)
		}
		w.Add("roles @> ?::jsonb", string(containment))
	}

	switch f.Status {
	case "":
	case StatusActive:
		w.Add("is_active = ?", true)
	case StatusInactive:
		w.Add("is_active = ?", false)
	default:
		return nil, core.ValidationError("status must be one of [active inactive]")
	}

	if f.From != nil {
		w.Add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		w.Add("created_at <= ?", *f.To)
	}

	return w, nil
}

func (r *repository) List(
	ctx context.Context,
	filter Filter,
	page core.PageParams,
) ([]User, int, error) {
	where, err := buildWhere(filter)
	if err != nil {
		return nil, 0, err
	}
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM users " + where.Clause()
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM users %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, userColumns, where.Clause(), where.Next(), where.Next()+1)

	users, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, countQuery, args...)
			return n, err
		},
		func(ctx context.Context) ([]User, error) {
			var rows []User
			err := r.db.SelectContext(ctx, &rows, listQuery,
				append(args, page.Limit, page.Offset())...)
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}
