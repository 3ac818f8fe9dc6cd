// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, entry *Log) error
	List(ctx context.Context, filter Filter, page core.PageParams) ([]Log, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const logColumns = `id, action, resource, resource_id, user_id, tenant_id,
		       ip_address, user_agent, metadata, created_at`

func (r *repository) Insert(ctx context.Context, entry *Log) error {
	query := `
		INSERT INTO audit_logs (action, resource, resource_id, user_id, tenant_id,
		                        ip_address, user_agent, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		entry.Action,
		entry.Resource,
		entry.ResourceID,
		entry.UserID,
		entry.TenantID,
		entry.IPAddress,
		entry.UserAgent,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

func buildWhere(f Filter) *core.Where {
	w := &core.Where{}
	w.AddIf(f.Resource, "resource = ?")
	w.AddIf(f.Action, "action = ?")
	w.AddIf(f.TenantID, "tenant_id = ?")
	w.AddIf(f.UserID, "user_id = ?")
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
) ([]Log, int, error) {
	where := buildWhere(filter)
	args := where.Args()

	countQuery := "SELECT COUNT(*) FROM audit_logs " + where.Clause()
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM audit_logs %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, logColumns, where.Clause(), where.Next(), where.Next()+1)

	logs, total, err := core.FetchPage(ctx,
		func(ctx context.Context) (int, error) {
			var n int
			err := r.db.GetContext(ctx, &n, countQuery, args...)
			return n, err
		},
		func(ctx context.Context) ([]Log, error) {
			var rows []Log
			err := r.db.SelectContext(ctx, &rows, listQuery,
				append(args, page.Limit, page.Offset())...)
			return rows, err
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	return logs, total, nil
}
