// AngelaMos | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
)

// Processor is the connected-account slice of the payment processor.
type Processor interface {
	CreateAccount(ctx context.Context, p payments.CreateAccountParams) (*payments.Account, error)
	GetAccount(ctx context.Context, accountID string) (*payments.Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*payments.AccountLink, error)
	CreatePaymentIntent(
		ctx context.Context,
		p payments.PaymentIntentParams,
		opts ...payments.CallOption,
	) (*payments.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string, opts ...payments.CallOption) (*payments.PaymentIntent, error)
	CreateTransfer(ctx context.Context, p payments.TransferParams) (*payments.Transfer, error)
}

type TenantStore interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
	RecordConnectedAccount(ctx context.Context, tenantID, accountID, status string) (*tenant.Tenant, error)
}

var ErrNotConnected = core.ValidationError("tenant has no connected payment account")

type Service struct {
	processor  Processor
	tenants    TenantStore
	refreshURL string
	returnURL  string
	audit      *audit.Recorder
	logger     *slog.Logger
}

func NewService(
	processor Processor,
	tenants TenantStore,
	cfg config.PaymentsConfig,
	recorder *audit.Recorder,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		processor:  processor,
		tenants:    tenants,
		refreshURL: cfg.RefreshURL,
		returnURL:  cfg.ReturnURL,
		audit:      recorder,
		logger:     logger,
	}
}

func (s *Service) tenantFor(ctx context.Context, p *authz.Principal, action authz.Action) (*tenant.Tenant, error) {
	if err := authz.Authorize(p, action, authz.Target{}); err != nil {
		return nil, err
	}
	tenantID, err := p.RequireTenant()
	if err != nil {
		return nil, err
	}
	return s.tenants.GetByID(ctx, tenantID)
}

// Connect creates the tenant's connected account on first call and always
// returns a fresh onboarding link.
func (s *Service) Connect(ctx context.Context, p *authz.Principal, req ConnectRequest) (*ConnectResponse, error) {
	t, err := s.tenantFor(ctx, p, authz.ActionPaymentAccount)
	if err != nil {
		return nil, err
	}

	var acct *payments.Account
	created := false
	if id := t.AccountID(); id != "" {
		acct, err = s.processor.GetAccount(ctx, id)
	} else {
		acct, err = s.processor.CreateAccount(ctx, payments.CreateAccountParams{
			Email:    p.Email,
			Country:  strings.ToUpper(req.Country),
			TenantID: t.ID,
		})
		created = true
	}
	if err != nil {
		return nil, err
	}

	if created || t.ConnectedAccountStatus == nil || *t.ConnectedAccountStatus != acct.Status() {
		if _, err := s.tenants.RecordConnectedAccount(ctx, t.ID, acct.ID, acct.Status()); err != nil {
			return nil, fmt.Errorf("record connected account: %w", err)
		}
	}

	link, err := s.processor.CreateAccountLink(ctx, acct.ID, s.refreshURL, s.returnURL)
	if err != nil {
		return nil, err
	}

	if created {
		s.audit.Record(ctx, audit.Entry{
			Action:     "connect",
			Resource:   audit.ResourcePayment,
			ResourceID: acct.ID,
		})
	}

	resp := &ConnectResponse{Account: ToAccountResponse(acct), OnboardingURL: link.URL}
	if link.ExpiresAt > 0 {
		exp := time.Unix(link.ExpiresAt, 0).UTC()
		resp.ExpiresAt = &exp
	}
	return resp, nil
}

func (s *Service) Account(ctx context.Context, p *authz.Principal) (*payments.Account, error) {
	t, err := s.tenantFor(ctx, p, authz.ActionPaymentAccount)
	if err != nil {
		return nil, err
	}
	if t.AccountID() == "" {
		return nil, core.NotFoundError("connected account")
	}
	return s.processor.GetAccount(ctx, t.AccountID())
}

func currencyOr(requested, fallback string) string {
	if requested != "" {
		return strings.ToLower(requested)
	}
	if fallback != "" {
		return strings.ToLower(fallback)
	}
	return "usd"
}

// CreateIntent charges on the tenant's connected account. The account must
// be able to accept charges.
func (s *Service) CreateIntent(
	ctx context.Context,
	p *authz.Principal,
	req CreateIntentRequest,
) (*payments.PaymentIntent, error) {
	t, err := s.tenantFor(ctx, p, authz.ActionPaymentIntents)
	if err != nil {
		return nil, err
	}
	if t.AccountID() == "" {
		return nil, ErrNotConnected
	}
	if t.ConnectedAccountStatus == nil || *t.ConnectedAccountStatus != payments.AccountStatusActive {
		return nil, core.ValidationError("connected account cannot accept charges yet")
	}
	if req.ApplicationFeeAmount >= req.Amount {
		return nil, core.ValidationError("applicationFeeAmount must be below amount")
	}

	pi, err := s.processor.CreatePaymentIntent(ctx, payments.PaymentIntentParams{
		Amount:               req.Amount,
		Currency:             currencyOr(req.Currency, t.Currency),
		Customer:             req.Customer,
		PaymentMethod:        req.PaymentMethod,
		Description:          req.Description,
		TenantID:             t.ID,
		ApplicationFeeAmount: req.ApplicationFeeAmount,
	}, payments.OnAccount(t.AccountID()))
	if err != nil {
		s.logger.ErrorContext(ctx, "create payment intent failed", "tenant_id", t.ID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "create_intent",
		Resource:   audit.ResourcePayment,
		ResourceID: pi.ID,
		Metadata:   map[string]any{"amount": pi.Amount, "currency": pi.Currency},
	})

	return pi, nil
}

// GetIntent hides intents that belong to another tenant.
func (s *Service) GetIntent(ctx context.Context, p *authz.Principal, id string) (*payments.PaymentIntent, error) {
	t, err := s.tenantFor(ctx, p, authz.ActionPaymentIntents)
	if err != nil {
		return nil, err
	}
	if t.AccountID() == "" {
		return nil, core.NotFoundError("payment intent")
	}

	pi, err := s.processor.GetPaymentIntent(ctx, id, payments.OnAccount(t.AccountID()))
	if err != nil {
		return nil, err
	}
	if owner := pi.Metadata["tenant_id"]; owner != "" && owner != t.ID {
		return nil, core.NotFoundError("payment intent")
	}

	return pi, nil
}

// Transfer moves platform funds to a tenant's connected account.
func (s *Service) Transfer(ctx context.Context, p *authz.Principal, req CreateTransferRequest) (*TransferResponse, error) {
	if err := authz.Authorize(p, authz.ActionPaymentTransfer, authz.Target{}); err != nil {
		return nil, err
	}

	t, err := s.tenants.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if t.AccountID() == "" {
		return nil, ErrNotConnected
	}
	if t.ConnectedAccountStatus == nil || *t.ConnectedAccountStatus != payments.AccountStatusActive {
		return nil, core.ValidationError("connected account cannot receive payouts yet")
	}

	tr, err := s.processor.CreateTransfer(ctx, payments.TransferParams{
		Amount:      req.Amount,
		Currency:    currencyOr(req.Currency, t.Currency),
		Destination: t.AccountID(),
		Description: req.Description,
		TenantID:    t.ID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "create transfer failed", "tenant_id", t.ID, "error", err)
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "transfer",
		Resource:   audit.ResourcePayment,
		ResourceID: tr.ID,
		TenantID:   t.ID,
		Metadata:   map[string]any{"amount": tr.Amount, "currency": tr.Currency},
	})

	return &TransferResponse{
		ID:          tr.ID,
		TenantID:    t.ID,
		Amount:      tr.Amount,
		Currency:    tr.Currency,
		Destination: tr.Destination,
	}, nil
}
