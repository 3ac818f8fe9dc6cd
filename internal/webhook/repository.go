// AngelaMos | 2026
// repository.go

package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Repository interface {
	Create(ctx context.Context, e *Endpoint) error
	List(ctx context.Context, page core.PageParams) ([]Endpoint, int, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const endpointColumns = `id, url, events, secret, is_active, created_by, created_at, updated_at`

func (r *repository) Create(ctx context.Context, e *Endpoint) error {
	query := `
		INSERT INTO webhook_endpoints (url, events, secret, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + endpointColumns

	if err := r.db.GetContext(ctx, e, query, e.URL, e.Events, e.Secret, e.CreatedBy); err != nil {
		return fmt.Errorf("create webhook endpoint: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context, page core.PageParams) ([]Endpoint, int, error) {
	listQuery := `
		SELECT ` + endpointColumns + `
		FROM webhook_endpoints
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	endpoints, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM webhook_endpoints")
			return n, err
		},
		func(ctx context.Context) ([]Endpoint, error) {
			var rows []Endpoint
			err := r.db.SelectContext(ctx, &rows, listQuery, page.Limit, page.Offset())
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook endpoints: %w", err)
	}

	return endpoints, total, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	var deleted string
	err := r.db.GetContext(ctx, &deleted, `DELETE FROM webhook_endpoints WHERE id = $1 RETURNING id`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete webhook endpoint: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete webhook endpoint: %w", err)
	}

	return nil
}
