// AngelaMos | 2026
// fakes_test.go

package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

type memoryRepo struct {
	mu       sync.Mutex
	methods  []PaymentMethod
	invoices map[string]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: map[string]*Invoice{}}
}

func (m *memoryRepo) CreatePaymentMethod(_ context.Context, pm *PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.methods {
		if existing.ProcessorID == pm.ProcessorID {
			return fmt.Errorf("create payment method: %w", core.ErrDuplicateKey)
		}
	}
	pm.ID = fmt.Sprintf("pm-%d", len(m.methods)+1)
	pm.CreatedAt = time.Now()
	m.methods = append(m.methods, *pm)
	return nil
}

func (m *memoryRepo) GetPaymentMethod(_ context.Context, tenantID, id string) (*PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pm := range m.methods {
		if pm.ID == id && pm.TenantID == tenantID {
			cp := pm
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get payment method: %w", core.ErrNotFound)
}

func (m *memoryRepo) ListPaymentMethods(_ context.Context, tenantID string) ([]PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []PaymentMethod{}
	for _, pm := range m.methods {
		if pm.TenantID == tenantID {
			out = append(out, pm)
		}
	}
	return out, nil
}

func (m *memoryRepo) SetDefaultPaymentMethod(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.methods {
		if m.methods[i].TenantID != tenantID {
			continue
		}
		m.methods[i].IsDefault = m.methods[i].ID == id
		found = found || m.methods[i].ID == id
	}
	if !found {
		return fmt.Errorf("set default payment method: %w", core.ErrNotFound)
	}
	return nil
}

func (m *memoryRepo) DeletePaymentMethod(_ context.Context, tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pm := range m.methods {
		if pm.ID == id && pm.TenantID == tenantID {
			m.methods = append(m.methods[:i], m.methods[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete payment method: %w", core.ErrNotFound)
}

func (m *memoryRepo) DeletePaymentMethodByProcessorID(_ context.Context, processorID string) (*PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, pm := range m.methods {
		if pm.ProcessorID == processorID {
			m.methods = append(m.methods[:i], m.methods[i+1:]...)
			return &pm, nil
		}
	}
	return nil, fmt.Errorf("delete payment method: %w", core.ErrNotFound)
}

func (m *memoryRepo) UpsertInvoice(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.invoices[inv.ProcessorInvoiceID]; ok {
		inv.ID = existing.ID
	} else {
		inv.ID = fmt.Sprintf("inv-%d", len(m.invoices)+1)
	}
	cp := *inv
	m.invoices[inv.ProcessorInvoiceID] = &cp
	return nil
}

func (m *memoryRepo) GetInvoice(_ context.Context, tenantID, id string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.ID == id && inv.TenantID == tenantID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get invoice: %w", core.ErrNotFound)
}

func (m *memoryRepo) ListInvoices(_ context.Context, tenantID string, f InvoiceFilter, _ core.PageParams) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Invoice{}
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && (f.Status == "" || inv.Status == f.Status) {
			out = append(out, *inv)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) InvoiceTotals(_ context.Context, tenantID string) (InvoiceTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var totals InvoiceTotals
	for _, inv := range m.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		switch inv.Status {
		case InvoiceOpen:
			totals.OpenCount++
			totals.OpenAmount += inv.Amount
		case InvoicePaid:
			totals.PaidAmount += inv.Amount
		}
	}
	return totals, nil
}

func (m *memoryRepo) defaults(tenantID string) int {
	n := 0
	for _, pm := range m.methods {
		if pm.TenantID == tenantID && pm.IsDefault {
			n++
		}
	}
	return n
}

type tenantStore struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
}

func (s *tenantStore) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
}

func (s *tenantStore) GetByCustomerID(_ context.Context, customerID string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.CustomerID() == customerID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get tenant by customer: %w", core.ErrNotFound)
}

func (s *tenantStore) RecordCustomer(_ context.Context, tenantID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[tenantID].ProcessorCustomerID = &customerID
	return nil
}

func (s *tenantStore) RecordSubscription(
	_ context.Context,
	tenantID string,
	subscriptionID *string,
	nextBilling *time.Time,
) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenants[tenantID]
	t.SubscriptionID = subscriptionID
	t.NextBillingDate = nextBilling
	cp := *t
	return &cp, nil
}

func (s *tenantStore) ChangePlan(_ context.Context, tenantID, plan string) (*tenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenants[tenantID]
	t.Plan = plan
	t.Limits = tenant.Plans[plan].Limits
	cp := *t
	return &cp, nil
}

type fakeProcessor struct {
	mu         sync.Mutex
	calls      []string
	customers  int
	defaultFor map[string]string
	cancelErr  error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{defaultFor: map[string]string{}}
}

func (f *fakeProcessor) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProcessor) CreateCustomer(_ context.Context, p payments.CreateCustomerParams) (*payments.Customer, error) {
	f.record("create_customer")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers++
	return &payments.Customer{ID: fmt.Sprintf("cus_%d", f.customers), Email: p.Email, Name: p.Name}, nil
}

func (f *fakeProcessor) AttachPaymentMethod(_ context.Context, id, customerID string) (*payments.PaymentMethod, error) {
	f.record("attach:" + id)
	return &payments.PaymentMethod{
		ID:       id,
		Type:     "card",
		Customer: customerID,
		Card:     &payments.Card{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
	}, nil
}

func (f *fakeProcessor) DetachPaymentMethod(_ context.Context, id string) (*payments.PaymentMethod, error) {
	f.record("detach:" + id)
	return &payments.PaymentMethod{ID: id}, nil
}

func (f *fakeProcessor) SetDefaultPaymentMethod(_ context.Context, customerID, id string) error {
	f.record("default:" + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaultFor[customerID] = id
	return nil
}

func (f *fakeProcessor) CreateSubscription(_ context.Context, p payments.SubscriptionParams) (*payments.Subscription, error) {
	f.record("subscribe:" + p.PriceID)
	return &payments.Subscription{
		ID:               "sub_1",
		Status:           "active",
		Customer:         p.Customer,
		CurrentPeriodEnd: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}, nil
}

func (f *fakeProcessor) CancelSubscription(_ context.Context, id string) (*payments.Subscription, error) {
	f.record("cancel:" + id)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &payments.Subscription{ID: id, Status: "canceled"}, nil
}

var (
	ownerP = &authz.Principal{UserID: "owner-a", Email: "owner@acme.test", Roles: []string{authz.RoleTenantOwner},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	adminP = &authz.Principal{UserID: "admin-a", Roles: []string{authz.RoleAdmin},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	managerP = &authz.Principal{UserID: "mgr-a", Roles: []string{authz.RoleManager},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
	memberP = &authz.Principal{UserID: "member-a", Roles: []string{authz.RoleUser},
		TenantID: "t-a", TenantStatus: authz.TenantStatusActive}
)

type fixtureSet struct {
	svc       *Service
	repo      *memoryRepo
	tenants   *tenantStore
	processor *fakeProcessor
}

func fixture() fixtureSet {
	repo := newMemoryRepo()
	tenants := &tenantStore{tenants: map[string]*tenant.Tenant{
		"t-a": {ID: "t-a", Name: "Acme", Plan: tenant.PlanFree, Status: authz.TenantStatusActive, Currency: "usd"},
		"t-b": {ID: "t-b", Name: "Beta", Plan: tenant.PlanStarter, Status: authz.TenantStatusActive,
			Currency: "usd", ProcessorCustomerID: strPtr("cus_b")},
	}}
	processor := newFakeProcessor()
	prices := map[string]string{tenant.PlanStarter: "price_starter", tenant.PlanProfessional: "price_pro"}

	return fixtureSet{
		svc:       NewService(repo, tenants, processor, prices, nil, nil),
		repo:      repo,
		tenants:   tenants,
		processor: processor,
	}
}

func strPtr(s string) *string { return &s }
