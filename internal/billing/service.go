// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

// Processor is the slice of the payment processor billing drives.
type Processor interface {
	CreateCustomer(ctx context.Context, p payments.CreateCustomerParams) (*payments.Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*payments.PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) (*payments.PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, p payments.SubscriptionParams) (*payments.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*payments.Subscription, error)
}

type TenantStore interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
	GetByCustomerID(ctx context.Context, customerID string) (*tenant.Tenant, error)
	RecordCustomer(ctx context.Context, tenantID, customerID string) error
	RecordSubscription(ctx context.Context, tenantID string, subscriptionID *string, nextBilling *time.Time) (*tenant.Tenant, error)
	ChangePlan(ctx context.Context, tenantID, plan string) (*tenant.Tenant, error)
}

type Service struct {
	repo      Repository
	tenants   TenantStore
	processor Processor
	prices    map[string]string
	audit     *audit.Recorder
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	tenants TenantStore,
	processor Processor,
	prices map[string]string,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		tenants:   tenants,
		processor: processor,
		prices:    prices,
		audit:     recorder,
		logger:    logger,
	}
}

func (s *Service) authorize(p *authz.Principal, action authz.Action) (string, error) {
	if err := authz.Authorize(p, action, authz.Target{}); err != nil {
		return "", err
	}
	return p.RequireTenant()
}

func (s *Service) Summary(ctx context.Context, p *authz.Principal) (*Summary, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingRead)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	methods, err := s.repo.ListPaymentMethods(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.InvoiceTotals(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Plan:               t.Plan,
		Status:             t.Status,
		MonthlyPrice:       t.MonthlyPrice,
		Currency:           t.Currency,
		NextBillingDate:    t.NextBillingDate,
		PaymentMethodCount: len(methods),
		Invoices:           totals,
	}
	if t.SubscriptionID != nil {
		summary.SubscriptionID = *t.SubscriptionID
	}
	for i := range methods {
		if methods[i].IsDefault {
			resp := ToPaymentMethodResponse(&methods[i])
			summary.DefaultPaymentMethod = &resp
			break
		}
	}

	return summary, nil
}

func (s *Service) ListInvoices(
	ctx context.Context,
	p *authz.Principal,
	filter InvoiceFilter,
	page core.PageParams,
) ([]Invoice, int, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingRead)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListInvoices(ctx, tenantID, filter, page)
}

func (s *Service) GetInvoice(ctx context.Context, p *authz.Principal, id string) (*Invoice, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingRead)
	if err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, tenantID, id)
}

func (s *Service) ListPaymentMethods(ctx context.Context, p *authz.Principal) ([]PaymentMethod, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingRead)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPaymentMethods(ctx, tenantID)
}

// ensureCustomer returns the tenant's processor customer, creating it on
// first use.
func (s *Service) ensureCustomer(ctx context.Context, p *authz.Principal, t *tenant.Tenant) (string, error) {
	if id := t.CustomerID(); id != "" {
		return id, nil
	}

	cust, err := s.processor.CreateCustomer(ctx, payments.CreateCustomerParams{
		Email:    p.Email,
		Name:     t.Name,
		TenantID: t.ID,
	})
	if err != nil {
		return "", err
	}
	if err := s.tenants.RecordCustomer(ctx, t.ID, cust.ID); err != nil {
		return "", fmt.Errorf("record customer: %w", err)
	}

	return cust.ID, nil
}

// AddPaymentMethod attaches a processor payment method to the tenant's
// customer and mirrors it. The first method becomes the default.
func (s *Service) AddPaymentMethod(
	ctx context.Context,
	p *authz.Principal,
	req AddPaymentMethodRequest,
) (*PaymentMethod, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingWrite)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.ensureCustomer(ctx, p, t)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListPaymentMethods(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	attached, err := s.processor.AttachPaymentMethod(ctx, req.PaymentMethodID, customerID)
	if err != nil {
		return nil, err
	}

	pm := mirrorPaymentMethod(tenantID, attached)
	if err := s.repo.CreatePaymentMethod(ctx, pm); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("payment method")
		}
		return nil, err
	}

	if req.SetDefault || len(existing) == 0 {
		if err := s.makeDefault(ctx, customerID, pm); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourcePaymentMethod,
		ResourceID: pm.ID,
		Metadata:   map[string]any{"type": pm.Type, "default": pm.IsDefault},
	})

	return pm, nil
}

func mirrorPaymentMethod(tenantID string, src *payments.PaymentMethod) *PaymentMethod {
	pm := &PaymentMethod{
		TenantID:    tenantID,
		ProcessorID: src.ID,
		Type:        src.Type,
	}
	if src.Card != nil {
		pm.Brand = core.NullIfEmpty(src.Card.Brand)
		pm.Last4 = core.NullIfEmpty(src.Card.Last4)
		pm.ExpMonth = &src.Card.ExpMonth
		pm.ExpYear = &src.Card.ExpYear
	}
	if src.USBankAccount != nil {
		pm.BankName = core.NullIfEmpty(src.USBankAccount.BankName)
		pm.Last4 = core.NullIfEmpty(src.USBankAccount.Last4)
	}
	return pm
}

func (s *Service) makeDefault(ctx context.Context, customerID string, pm *PaymentMethod) error {
	if err := s.processor.SetDefaultPaymentMethod(ctx, customerID, pm.ProcessorID); err != nil {
		return err
	}
	if err := s.repo.SetDefaultPaymentMethod(ctx, pm.TenantID, pm.ID); err != nil {
		return err
	}
	pm.IsDefault = true
	return nil
}

func (s *Service) SetDefault(ctx context.Context, p *authz.Principal, id string) (*PaymentMethod, error) {
	tenantID, err := s.authorize(p, authz.ActionBillingWrite)
	if err != nil {
		return nil, err
	}

	pm, err := s.repo.GetPaymentMethod(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if pm.IsDefault {
		return pm, nil
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.makeDefault(ctx, t.CustomerID(), pm); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "set_default",
		Resource:   audit.ResourcePaymentMethod,
		ResourceID: pm.ID,
	})

	return pm, nil
}

// RemovePaymentMethod detaches and deletes a method. The local rule is
// checked before the processor is touched.
func (s *Service) RemovePaymentMethod(ctx context.Context, p *authz.Principal, id string) error {
	tenantID, err := s.authorize(p, authz.ActionBillingWrite)
	if err != nil {
		return err
	}

	methods, err := s.repo.ListPaymentMethods(ctx, tenantID)
	if err != nil {
		return err
	}

	var target *PaymentMethod
	for i := range methods {
		if methods[i].ID == id {
			target = &methods[i]
			break
		}
	}
	if target == nil {
		return core.NotFoundError("payment method")
	}
	if target.IsDefault && len(methods) > 1 {
		return ErrDefaultInUse
	}

	if _, err := s.processor.DetachPaymentMethod(ctx, target.ProcessorID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err := s.repo.DeletePaymentMethod(ctx, tenantID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "delete",
		Resource:   audit.ResourcePaymentMethod,
		ResourceID: id,
	})

	return nil
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func (s *Service) Subscribe(ctx context.Context, p *authz.Principal, req SubscribeRequest) (*SubscriptionResponse, error) {
	tenantID, err := s.authorize(p, authz.ActionSubscriptionManage)
	if err != nil {
		return nil, err
	}

	price := s.prices[req.Plan]
	if price == "" {
		return nil, core.ValidationError("plan " + req.Plan + " is not available for purchase")
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.SubscriptionID != nil {
		return nil, core.ConflictError("tenant already has a subscription")
	}

	customerID, err := s.ensureCustomer(ctx, p, t)
	if err != nil {
		return nil, err
	}

	sub, err := s.processor.CreateSubscription(ctx, payments.SubscriptionParams{
		Customer: customerID,
		PriceID:  price,
		TenantID: tenantID,
	})
	if err != nil {
		return nil, err
	}

	next := unixTime(sub.CurrentPeriodEnd)
	if _, err := s.tenants.RecordSubscription(ctx, tenantID, &sub.ID, next); err != nil {
		return nil, fmt.Errorf("record subscription %s: %w", sub.ID, err)
	}
	if _, err := s.tenants.ChangePlan(ctx, tenantID, req.Plan); err != nil {
		return nil, fmt.Errorf("apply plan %s: %w", req.Plan, err)
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourceSubscription,
		ResourceID: sub.ID,
		Metadata:   map[string]any{"plan": req.Plan, "from": t.Plan},
	})

	return &SubscriptionResponse{ID: sub.ID, Status: sub.Status, Plan: req.Plan, NextBillingDate: next}, nil
}

// CancelSubscription ends the subscription and drops the tenant to the free
// plan. The tenant itself stays usable.
func (s *Service) CancelSubscription(ctx context.Context, p *authz.Principal) (*SubscriptionResponse, error) {
	tenantID, err := s.authorize(p, authz.ActionSubscriptionManage)
	if err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.SubscriptionID == nil {
		return nil, core.ValidationError("tenant has no subscription")
	}

	sub, err := s.processor.CancelSubscription(ctx, *t.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tenants.RecordSubscription(ctx, tenantID, nil, nil); err != nil {
		return nil, fmt.Errorf("clear subscription: %w", err)
	}
	if _, err := s.tenants.ChangePlan(ctx, tenantID, tenant.PlanFree); err != nil {
		return nil, fmt.Errorf("apply free plan: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "cancel",
		Resource:   audit.ResourceSubscription,
		ResourceID: sub.ID,
		Metadata:   map[string]any{"plan": t.Plan},
	})

	return &SubscriptionResponse{ID: sub.ID, Status: sub.Status, Plan: tenant.PlanFree}, nil
}

var invoiceStatuses = map[string]bool{
	InvoiceDraft:         true,
	InvoiceOpen:          true,
	InvoicePaid:          true,
	InvoiceVoid:          true,
	InvoiceUncollectible: true,
}

// ReconcileInvoice mirrors a processor invoice onto the owning tenant.
func (s *Service) ReconcileInvoice(ctx context.Context, src *payments.Invoice) (*Invoice, error) {
	if !invoiceStatuses[src.Status] {
		return nil, core.ValidationError("unknown invoice status " + src.Status)
	}

	t, err := s.tenants.GetByCustomerID(ctx, src.Customer)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", src.ID, err)
	}

	amount := src.AmountDue
	if src.Status == InvoicePaid {
		amount = src.AmountPaid
	}
	currency := src.Currency
	if currency == "" {
		currency = t.Currency
	}

	inv := &Invoice{
		TenantID:           t.ID,
		ProcessorInvoiceID: src.ID,
		PeriodStart:        unixTime(src.PeriodStart),
		PeriodEnd:          unixTime(src.PeriodEnd),
		Amount:             amount,
		Currency:           currency,
		Status:             src.Status,
		HostedURL:          core.NullIfEmpty(src.HostedInvoiceURL),
		DueAt:              unixTime(src.DueDate),
		PaidAt:             unixTime(src.StatusTransitions.PaidAt),
	}
	if err := s.repo.UpsertInvoice(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "sync",
		Resource:   audit.ResourceInvoice,
		ResourceID: inv.ID,
		TenantID:   t.ID,
		Metadata:   map[string]any{"processorId": src.ID, "status": src.Status},
	})

	return inv, nil
}

// ReconcileDetached drops the local mirror of a method detached at the
// processor. Methods never mirrored are ignored.
func (s *Service) ReconcileDetached(ctx context.Context, processorID string) error {
	pm, err := s.repo.DeletePaymentMethodByProcessorID(ctx, processorID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "payment method detached at processor",
		"tenant_id", pm.TenantID,
		"payment_method_id", pm.ID,
		"was_default", pm.IsDefault,
	)
	s.audit.Record(ctx, audit.Entry{
		Action:     "detach",
		Resource:   audit.ResourcePaymentMethod,
		ResourceID: pm.ID,
		TenantID:   pm.TenantID,
	})

	return nil
}
