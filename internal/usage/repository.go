// AngelaMos | 2026
// repository.go

package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// Repository covers metering rows plus the read-only aggregates the
// dashboard needs. An empty tenantID aggregates across the platform.
type Repository interface {
	Insert(ctx context.Context, rec *Record) error
	Daily(ctx context.Context, q Query) ([]Bucket, error)
	Sum(ctx context.Context, tenantID, resourceType string, since time.Time) (int64, error)
	CountUsers(ctx context.Context, tenantID string) (UserCounts, error)
	CountAuditEvents(ctx context.Context, tenantID string, since time.Time) (int, error)
	TenantStatusCounts(ctx context.Context) (map[string]int, error)
	MonthlyRecurringRevenue(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO usage_records (tenant_id, user_id, resource_type, amount, recorded_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, recorded_at`

	row := r.db.QueryRowxContext(ctx, query,
		rec.TenantID,
		rec.UserID,
		rec.ResourceType,
		rec.Amount,
		rec.RecordedAt,
		rec.Metadata,
	)
	if err := row.Scan(&rec.ID, &rec.RecordedAt); err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}

	return nil
}

func (r *repository) Daily(ctx context.Context, q Query) ([]Bucket, error) {
	w := &core.Where{}
	w.Add("tenant_id = ?", q.TenantID)
	w.AddIf(q.ResourceType, "resource_type = ?")
	w.Add("recorded_at >= ?", q.From)
	w.Add("recorded_at < ?", q.To)

	query := `
		SELECT date_trunc('day', recorded_at) AS day, resource_type, SUM(amount) AS total
		FROM usage_records ` + w.Clause() + `
		GROUP BY day, resource_type
		ORDER BY day, resource_type`

	var buckets []Bucket
	if err := r.db.SelectContext(ctx, &buckets, query, w.Args()...); err != nil {
		return nil, fmt.Errorf("daily usage: %w", err)
	}
	if buckets == nil {
		buckets = []Bucket{}
	}

	return buckets, nil
}

func (r *repository) Sum(ctx context.Context, tenantID, resourceType string, since time.Time) (int64, error) {
	w := &core.Where{}
	w.AddIf(tenantID, "tenant_id = ?")
	w.Add("resource_type = ?", resourceType)
	w.Add("recorded_at >= ?", since)

	query := `SELECT COALESCE(SUM(amount), 0) FROM usage_records ` + w.Clause()

	var total int64
	if err := r.db.GetContext(ctx, &total, query, w.Args()...); err != nil {
		return 0, fmt.Errorf("sum usage %s: %w", resourceType, err)
	}
	return total, nil
}

func (r *repository) CountUsers(ctx context.Context, tenantID string) (UserCounts, error) {
	w := &core.Where{}
	w.AddIf(tenantID, "tenant_id = ?")

	query := `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active
		FROM users ` + w.Clause()

	var counts UserCounts
	if err := r.db.GetContext(ctx, &counts, query, w.Args()...); err != nil {
		return UserCounts{}, fmt.Errorf("count users: %w", err)
	}
	return counts, nil
}

func (r *repository) CountAuditEvents(ctx context.Context, tenantID string, since time.Time) (int, error) {
	w := &core.Where{}
	w.AddIf(tenantID, "tenant_id = ?")
	w.Add("created_at >= ?", since)

	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM audit_logs `+w.Clause(), w.Args()...); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}

func (r *repository) TenantStatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM tenants GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tenants: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	counts := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan tenant count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count tenants: %w", err)
	}

	return counts, nil
}

func (r *repository) MonthlyRecurringRevenue(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(monthly_price), 0) FROM tenants WHERE status = 'active'`

	var mrr int64
	if err := r.db.GetContext(ctx, &mrr, query); err != nil {
		return 0, fmt.Errorf("monthly recurring revenue: %w", err)
	}
	return mrr, nil
}
