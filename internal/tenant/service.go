// AngelaMos | 2026
// service.go

package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Service struct {
	repo  Repository
	audit *audit.Recorder
}

func NewService(repo Repository, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, audit: recorder}
}

// GetByID skips authorization. It serves the credential resolver and
// webhook reconciliation.
func (s *Service) GetByID(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByCustomerID skips authorization; it maps processor events to tenants.
func (s *Service) GetByCustomerID(ctx context.Context, customerID string) (*Tenant, error) {
	return s.repo.GetByCustomerID(ctx, customerID)
}

func (s *Service) Get(ctx context.Context, p *authz.Principal, id string) (*Tenant, error) {
	if err := authz.Authorize(p, authz.ActionTenantRead, authz.Target{TenantID: id}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Current(ctx context.Context, p *authz.Principal) (*Tenant, error) {
	tenantID, err := p.RequireTenant()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p, tenantID)
}

func (s *Service) Update(
	ctx context.Context,
	p *authz.Principal,
	id string,
	req UpdateTenantRequest,
) (*Tenant, error) {
	if err := authz.Authorize(p, authz.ActionTenantUpdate, authz.Target{TenantID: id}); err != nil {
		return nil, err
	}

	patch := core.NewPatch()
	if req.Name != nil {
		patch.Set("name", strings.TrimSpace(*req.Name))
	}
	if req.Settings != nil {
		patch.Set("settings", core.JSONMap(req.Settings))
	}

	return s.apply(ctx, id, patch, "update")
}

func (s *Service) apply(ctx context.Context, id string, patch *core.Patch, action string) (*Tenant, error) {
	if patch.Empty() {
		return s.repo.GetByID(ctx, id)
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     action,
		Resource:   audit.ResourceTenant,
		ResourceID: id,
		TenantID:   id,
		Metadata:   map[string]any{"fields": patch.Columns()},
	})

	return t, nil
}

// TransferOwner hands the caller's tenant to another member.
func (s *Service) TransferOwner(ctx context.Context, p *authz.Principal, userID string) (*Tenant, error) {
	tenantID, err := p.RequireTenant()
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.ActionTenantTransferOwner, authz.Target{TenantID: tenantID}); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !p.IsSuperAdmin() && t.Owner() != p.UserID {
		return nil, core.ForbiddenError("only the current owner can transfer ownership")
	}
	if t.Owner() == userID {
		return t, nil
	}

	if err := s.repo.SetOwner(ctx, tenantID, userID, false); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "transfer_owner",
		Resource:   audit.ResourceTenant,
		ResourceID: tenantID,
		TenantID:   tenantID,
		Metadata:   map[string]any{"from": t.Owner(), "to": userID},
	})

	return s.repo.GetByID(ctx, tenantID)
}

func (s *Service) Create(ctx context.Context, p *authz.Principal, req CreateTenantRequest) (*Tenant, error) {
	if err := authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}); err != nil {
		return nil, err
	}

	plan := req.Plan
	if plan == "" {
		plan = PlanFree
	}
	defaults, ok := Plans[plan]
	if !ok {
		return nil, core.ValidationError("unknown plan " + plan)
	}

	limits := defaults.Limits
	if req.Limits != nil {
		limits = *req.Limits
	}

	t := &Tenant{
		Name:         strings.TrimSpace(req.Name),
		Domain:       strings.ToLower(req.Domain),
		Status:       authz.TenantStatusPending,
		Plan:         plan,
		Limits:       limits,
		Settings:     core.JSONMap(req.Settings),
		MonthlyPrice: defaults.MonthlyPrice,
		Currency:     "usd",
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	if req.OwnerID != "" {
		if err := s.repo.SetOwner(ctx, t.ID, req.OwnerID, true); err != nil {
			return nil, fmt.Errorf("assign owner: %w", err)
		}
		t.OwnerID = &req.OwnerID
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create",
		Resource:   audit.ResourceTenant,
		ResourceID: t.ID,
		TenantID:   t.ID,
		Metadata:   map[string]any{"plan": plan, "domain": t.Domain},
	})

	return t, nil
}

// AdminUpdate changes commercial fields. A plan change resets limits and
// price to the plan's defaults unless limits are supplied.
func (s *Service) AdminUpdate(
	ctx context.Context,
	p *authz.Principal,
	id string,
	req AdminUpdateTenantRequest,
) (*Tenant, error) {
	if err := authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}); err != nil {
		return nil, err
	}

	patch := core.NewPatch()
	if req.Name != nil {
		patch.Set("name", strings.TrimSpace(*req.Name))
	}
	if req.Domain != nil {
		patch.Set("domain", strings.ToLower(*req.Domain))
	}
	if req.Plan != nil {
		defaults, ok := Plans[*req.Plan]
		if !ok {
			return nil, core.ValidationError("unknown plan " + *req.Plan)
		}
		patch.Set("plan", *req.Plan)
		patch.Set("limits", defaults.Limits)
		patch.Set("monthly_price", defaults.MonthlyPrice)
	}
	if req.Limits != nil {
		patch.Set("limits", *req.Limits)
	}
	if req.Settings != nil {
		patch.Set("settings", core.JSONMap(req.Settings))
	}

	return s.apply(ctx, id, patch, "admin_update")
}

func (s *Service) List(
	ctx context.Context,
	p *authz.Principal,
	filter Filter,
	page core.PageParams,
) ([]Tenant, int, error) {
	if err := authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter, page)
}

// Transition applies a lifecycle action on behalf of a platform admin.
func (s *Service) Transition(ctx context.Context, p *authz.Principal, id, action string) (*Tenant, error) {
	if err := authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, action, "admin")
}

func (s *Service) transition(ctx context.Context, id, action, source string) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(t.Status, action)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetStatus(ctx, id, t.Status, next)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     action,
		Resource:   audit.ResourceTenant,
		ResourceID: id,
		TenantID:   id,
		Metadata:   map[string]any{"from": t.Status, "to": next, "source": source},
	})

	return updated, nil
}

// RecordCustomer links the tenant to its payment-processor customer.
func (s *Service) RecordCustomer(ctx context.Context, tenantID, customerID string) error {
	_, err := s.repo.Update(ctx, tenantID, core.NewPatch().Set("processor_customer_id", customerID))
	return err
}

func (s *Service) RecordConnectedAccount(ctx context.Context, tenantID, accountID, status string) (*Tenant, error) {
	return s.repo.Update(ctx, tenantID, core.NewPatch().
		Set("connected_account_id", accountID).
		Set("connected_account_status", status))
}

func (s *Service) RecordSubscription(
	ctx context.Context,
	tenantID string,
	subscriptionID *string,
	nextBilling *time.Time,
) (*Tenant, error) {
	return s.repo.Update(ctx, tenantID, core.NewPatch().
		Set("subscription_id", subscriptionID).
		Set("next_billing_date", nextBilling))
}

// ReconcileAccountStatus mirrors a processor-side connected account change.
func (s *Service) ReconcileAccountStatus(ctx context.Context, accountID, status string) error {
	t, err := s.repo.GetByAccountID(ctx, accountID)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, t.ID, core.NewPatch().Set("connected_account_status", status))
	return err
}

func (s *Service) ReconcileSubscription(
	ctx context.Context,
	customerID, subscriptionID string,
	periodEnd *time.Time,
) error {
	t, err := s.repo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	_, err = s.RecordSubscription(ctx, t.ID, &subscriptionID, periodEnd)
	return err
}

// ReconcileCancellation cancels the tenant whose current subscription the
// processor ended. A subscription the tenant already replaced or dropped
// locally is ignored, as is an already cancelled tenant.
func (s *Service) ReconcileCancellation(ctx context.Context, customerID, subscriptionID string) error {
	t, err := s.repo.GetByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	if t.SubscriptionID == nil || *t.SubscriptionID != subscriptionID {
		return nil
	}

	if _, err := s.repo.Update(ctx, t.ID, core.NewPatch().
		Set("subscription_id", nil).
		Set("next_billing_date", nil)); err != nil {
		return err
	}

	if t.Status == authz.TenantStatusCancelled {
		return nil
	}

	_, err = s.transition(ctx, t.ID, ActionCancel, "processor")
	return err
}

// ChangePlan moves a tenant to plan with that plan's default limits and price.
func (s *Service) ChangePlan(ctx context.Context, tenantID, plan string) (*Tenant, error) {
	defaults, ok := Plans[plan]
	if !ok {
		return nil, core.ValidationError("unknown plan " + plan)
	}

	patch := core.NewPatch().
		Set("plan", plan).
		Set("limits", defaults.Limits).
		Set("monthly_price", defaults.MonthlyPrice)

	return s.apply(ctx, tenantID, patch, "change_plan")
}
