// AngelaMos | 2026
// fakes_test.go

package usage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []Record
	users   map[string]UserCounts
	audits  map[string]int
	tenants map[string]int
	mrr     int64
	failSum error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:   map[string]UserCounts{"t-a": {Total: 4, Active: 3}, "": {Total: 9, Active: 7}},
		audits:  map[string]int{"t-a": 12, "": 30},
		tenants: map[string]int{authz.TenantStatusActive: 2, authz.TenantStatusPending: 1},
		mrr:     12_800,
	}
}

func (m *memoryRepo) Insert(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = fmt.Sprintf("r-%d", len(m.records)+1)
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryRepo) Daily(_ context.Context, q Query) ([]Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totals := map[[2]string]int64{}
	for _, r := range m.records {
		if r.TenantID != q.TenantID || r.RecordedAt.Before(q.From) || !r.RecordedAt.Before(q.To) {
			continue
		}
		if q.ResourceType != "" && r.ResourceType != q.ResourceType {
			continue
		}
		day := r.RecordedAt.UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
		totals[[2]string{day, r.ResourceType}] += r.Amount
	}

	out := []Bucket{}
	for k, total := range totals {
		day, _ := time.Parse(time.RFC3339, k[0])
		out = append(out, Bucket{Day: day, ResourceType: k[1], Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].ResourceType < out[j].ResourceType
	})
	return out, nil
}

func (m *memoryRepo) Sum(_ context.Context, tenantID, resourceType string, since time.Time) (int64, error) {
	if m.failSum != nil {
		return 0, m.failSum
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, r := range m.records {
		if (tenantID == "" || r.TenantID == tenantID) && r.ResourceType == resourceType && !r.RecordedAt.Before(since) {
			total += r.Amount
		}
	}
	return total, nil
}

func (m *memoryRepo) CountUsers(_ context.Context, tenantID string) (UserCounts, error) {
	return m.users[tenantID], nil
}

func (m *memoryRepo) CountAuditEvents(_ context.Context, tenantID string, _ time.Time) (int, error) {
	return m.audits[tenantID], nil
}

func (m *memoryRepo) TenantStatusCounts(context.Context) (map[string]int, error) {
	return m.tenants, nil
}

func (m *memoryRepo) MonthlyRecurringRevenue(context.Context) (int64, error) {
	return m.mrr, nil
}

type tenantLookup map[string]*tenant.Tenant

func (l tenantLookup) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := l[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
}

var (
	fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	ownerP = &authz.Principal{UserID: "owner-a", Roles: []string{authz.RoleTenantOwner},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	managerP = &authz.Principal{UserID: "mgr-a", Roles: []string{authz.RoleManager},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	memberP = &authz.Principal{UserID: "member-a", Roles: []string{authz.RoleUser},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	rootP = &authz.Principal{UserID: "root", Roles: []string{authz.RoleSuperAdmin}}
)

func fixture() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	tenants := tenantLookup{
		"t-a": {ID: "t-a", Name: "Acme", Plan: tenant.PlanFree, Status: authz.TenantStatusActive,
			Limits: tenant.Plans[tenant.PlanFree].Limits},
		"t-b": {ID: "t-b", Name: "Beta", Plan: tenant.PlanStarter, Status: authz.TenantStatusActive},
	}
	svc := NewService(repo, tenants, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo
}

func seed(repo *memoryRepo, tenantID, resource string, amount int64, at time.Time) {
	repo.records = append(repo.records, Record{
		TenantID: tenantID, ResourceType: resource, Amount: amount, RecordedAt: at,
	})
}
