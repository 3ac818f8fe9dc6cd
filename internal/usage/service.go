// AngelaMos | 2026
// service.go

package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

type Service struct {
	repo    Repository
	tenants TenantLookup
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, tenants TenantLookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		tenants: tenants,
		logger:  logger,
		now:     time.Now,
	}
}

// Stats returns PlatformStats for a super_admin outside any tenant and
// TenantStats otherwise.
func (s *Service) Stats(ctx context.Context, p *authz.Principal) (any, error) {
	if err := authz.Authorize(p, authz.ActionDashboardRead, authz.Target{}); err != nil {
		return nil, err
	}
	if p.IsSuperAdmin() && !p.HasTenant() {
		return s.platformStats(ctx)
	}
	return s.tenantStats(ctx, p.TenantID)
}

func (s *Service) tenantStats(ctx context.Context, tenantID string) (*TenantStats, error) {
	now := s.now()
	month := monthStart(now)

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	stats := &TenantStats{
		Scope:  ScopeTenant,
		Tenant: TenantSummary{ID: t.ID, Name: t.Name, Plan: t.Plan, Status: t.Status},
		Limits: t.Limits,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.CountUsers(gctx, tenantID)
		stats.Users = counts
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Sum(gctx, tenantID, ResourceAPICalls, month)
		stats.Usage.APICalls = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Sum(gctx, tenantID, ResourceStorage, month)
		stats.Usage.Storage = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Sum(gctx, tenantID, ResourceBandwidth, month)
		stats.Usage.Bandwidth = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountAuditEvents(gctx, tenantID, now.Add(-DefaultWindow))
		stats.AuditEvents30d = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tenant dashboard: %w", err)
	}

	stats.APICallsRemaining = max(t.Limits.APICallsPerMonth-stats.Usage.APICalls, 0)

	return stats, nil
}

func (s *Service) platformStats(ctx context.Context) (*PlatformStats, error) {
	now := s.now()
	stats := &PlatformStats{Scope: ScopePlatform}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.repo.TenantStatusCounts(gctx)
		stats.Tenants = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.repo.CountUsers(gctx, "")
		stats.Users = counts
		return err
	})
	g.Go(func() error {
		n, err := s.repo.Sum(gctx, "", ResourceAPICalls, monthStart(now))
		stats.APICallsThisMonth = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.MonthlyRecurringRevenue(gctx)
		stats.MonthlyRevenue = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountAuditEvents(gctx, "", now.Add(-DefaultWindow))
		stats.AuditEvents30d = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("platform dashboard: %w", err)
	}

	for _, n := range stats.Tenants {
		stats.TotalTenants += n
	}

	return stats, nil
}

// scope resolves which tenant a usage read or write targets. A super_admin
// without a tenant context must name one.
func (s *Service) scope(p *authz.Principal, action authz.Action, requested string) (string, error) {
	if err := authz.Authorize(p, action, authz.Target{TenantID: requested}); err != nil {
		return "", err
	}
	if requested != "" {
		return requested, nil
	}
	return p.RequireTenant()
}

// Daily returns per-day totals for q.TenantID, or the caller's tenant.
func (s *Service) Daily(ctx context.Context, p *authz.Principal, q Query) ([]Bucket, error) {
	return s.daily(ctx, p, authz.ActionDashboardRead, q)
}

func (s *Service) daily(ctx context.Context, p *authz.Principal, action authz.Action, q Query) ([]Bucket, error) {
	tenantID, err := s.scope(p, action, q.TenantID)
	if err != nil {
		return nil, err
	}
	q.TenantID = tenantID

	if q.ResourceType != "" && !ValidResource(q.ResourceType) {
		return nil, core.ValidationError("resource must be one of [api_calls storage bandwidth]")
	}
	if q.To.IsZero() {
		q.To = s.now()
	}
	if q.From.IsZero() {
		q.From = q.To.Add(-DefaultWindow)
	}
	if !q.From.Before(q.To) {
		return nil, core.ValidationError("from must be before to")
	}

	return s.repo.Daily(ctx, q)
}

// Export renders the daily buckets as an xlsx workbook.
func (s *Service) Export(ctx context.Context, p *authz.Principal, q Query) ([]byte, error) {
	buckets, err := s.daily(ctx, p, authz.ActionDashboardExport, q)
	if err != nil {
		return nil, err
	}
	return RenderWorkbook(buckets)
}

func (s *Service) Ingest(ctx context.Context, p *authz.Principal, req IngestRequest) (*Record, error) {
	tenantID, err := s.scope(p, authz.ActionUsageWrite, req.TenantID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("tenant")
		}
		return nil, err
	}

	rec := &Record{
		TenantID:     tenantID,
		UserID:       core.NullIfEmpty(p.UserID),
		ResourceType: req.ResourceType,
		Amount:       req.Amount,
		RecordedAt:   s.now().UTC(),
		Metadata:     core.JSONMap(req.Metadata),
	}
	if req.RecordedAt != nil {
		rec.RecordedAt = req.RecordedAt.UTC()
	}
	if rec.Metadata == nil {
		rec.Metadata = core.JSONMap{}
	}
	if p.IsAPIKey() {
		rec.Metadata["apiKeyId"] = p.APIKeyID
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "usage recorded",
		"tenant_id", tenantID,
		"resource_type", rec.ResourceType,
		"amount", rec.Amount,
	)

	return rec, nil
}
