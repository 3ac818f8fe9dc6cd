// AngelaMos | 2026
// ingress.go

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"

	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/billing"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
)

type Verifier interface {
	VerifyWebhook(payload []byte, header string) (stripe.Event, error)
}

// Deduper remembers processed event ids.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type TenantReconciler interface {
	ReconcileAccountStatus(ctx context.Context, accountID, status string) error
	ReconcileSubscription(ctx context.Context, customerID, subscriptionID string, periodEnd *time.Time) error
	ReconcileCancellation(ctx context.Context, customerID, subscriptionID string) error
}

type BillingReconciler interface {
	ReconcileInvoice(ctx context.Context, inv *payments.Invoice) (*billing.Invoice, error)
	ReconcileDetached(ctx context.Context, processorID string) error
}

// Ingress verifies processor events and reconciles local state from them.
// Each event id is processed at most once per dedupe window.
type Ingress struct {
	verifier Verifier
	dedupe   Deduper
	window   time.Duration
	tenants  TenantReconciler
	billing  BillingReconciler
	audit    *audit.Recorder
	metrics  *core.Metrics
	logger   *slog.Logger
}

type IngressConfig struct {
	Verifier     Verifier
	Dedupe       Deduper
	DedupeWindow time.Duration
	Tenants      TenantReconciler
	Billing      BillingReconciler
	Audit        *audit.Recorder
	Metrics      *core.Metrics
	Logger       *slog.Logger
}

func NewIngress(cfg IngressConfig) *Ingress {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 24 * time.Hour
	}
	return &Ingress{
		verifier: cfg.Verifier,
		dedupe:   cfg.Dedupe,
		window:   cfg.DedupeWindow,
		tenants:  cfg.Tenants,
		billing:  cfg.Billing,
		audit:    cfg.Audit,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

func dedupeKey(eventID string) string {
	return "webhook:" + eventID
}

// Handle verifies payload and applies the event. A failed reconciliation
// releases the dedupe claim so the processor's retry is processed again.
func (g *Ingress) Handle(ctx context.Context, payload []byte, signature string) (*AckResponse, error) {
	event, err := g.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		g.metrics.ObserveWebhook("unknown", ResultRejected)
		g.logger.WarnContext(ctx, "webhook signature rejected", "error", err)
		return nil, err
	}
	eventType := string(event.Type)

	claimed, err := g.dedupe.Claim(ctx, dedupeKey(event.ID), g.window)
	if err != nil {
		g.metrics.ObserveWebhook(eventType, ResultFailed)
		return nil, err
	}
	if !claimed {
		g.metrics.ObserveWebhook(eventType, ResultDuplicate)
		g.logger.InfoContext(ctx, "duplicate webhook event", "event_id", event.ID, "type", eventType)
		return &AckResponse{Received: true, EventID: event.ID, Result: ResultDuplicate}, nil
	}

	result, err := g.dispatch(ctx, event)
	if errors.Is(err, core.ErrNotFound) {
		// Events for objects no tenant owns are acknowledged.
		g.logger.WarnContext(ctx, "webhook event for unknown object",
			"event_id", event.ID,
			"type", eventType,
			"error", err,
		)
		result, err = ResultIgnored, nil
	}
	if err != nil {
		if relErr := g.dedupe.Release(ctx, dedupeKey(event.ID)); relErr != nil {
			g.logger.ErrorContext(ctx, "release webhook claim failed", "event_id", event.ID, "error", relErr)
		}
		g.metrics.ObserveWebhook(eventType, ResultFailed)
		g.logger.ErrorContext(ctx, "webhook reconciliation failed",
			"event_id", event.ID,
			"type", eventType,
			"error", err,
		)
		return nil, err
	}

	g.metrics.ObserveWebhook(eventType, result)
	g.logger.DebugContext(ctx, "webhook event handled", "event_id", event.ID, "type", eventType, "result", result)

	return &AckResponse{Received: true, EventID: event.ID, Result: result}, nil
}

func decode[T any](event stripe.Event) (*T, error) {
	var out T
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, core.ValidationError("event " + event.ID + " has no data")
	}
	if err := json.Unmarshal(event.Data.Raw, &out); err != nil {
		return nil, core.ValidationError(fmt.Sprintf("decode %s payload: %v", event.Type, err))
	}
	return &out, nil
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func (g *Ingress) dispatch(ctx context.Context, event stripe.Event) (string, error) {
	eventType := string(event.Type)

	switch {
	case eventType == EventAccountUpdated:
		acct, err := decode[payments.Account](event)
		if err != nil {
			return "", err
		}
		return ResultProcessed, g.tenants.ReconcileAccountStatus(ctx, acct.ID, acct.Status())

	case strings.HasPrefix(eventType, invoicePrefix):
		inv, err := decode[payments.Invoice](event)
		if err != nil {
			return "", err
		}
		_, err = g.billing.ReconcileInvoice(ctx, inv)
		return ResultProcessed, err

	case eventType == EventSubscriptionUpdated:
		sub, err := decode[payments.Subscription](event)
		if err != nil {
			return "", err
		}
		return ResultProcessed, g.tenants.ReconcileSubscription(ctx, sub.Customer, sub.ID, unixTime(sub.CurrentPeriodEnd))

	case eventType == EventSubscriptionDeleted:
		sub, err := decode[payments.Subscription](event)
		if err != nil {
			return "", err
		}
		return ResultProcessed, g.tenants.ReconcileCancellation(ctx, sub.Customer, sub.ID)

	case eventType == EventPaymentIntentSucceeded, eventType == EventPaymentIntentFailed:
		pi, err := decode[payments.PaymentIntent](event)
		if err != nil {
			return "", err
		}
		g.audit.Record(ctx, audit.Entry{
			Action:     strings.TrimPrefix(eventType, "payment_intent."),
			Resource:   audit.ResourcePayment,
			ResourceID: pi.ID,
			TenantID:   pi.Metadata["tenant_id"],
			Metadata: map[string]any{
				"eventId":  event.ID,
				"amount":   pi.Amount,
				"currency": pi.Currency,
				"status":   pi.Status,
			},
		})
		return ResultProcessed, nil

	case eventType == EventPaymentMethodDetached:
		pm, err := decode[payments.PaymentMethod](event)
		if err != nil {
			return "", err
		}
		return ResultProcessed, g.billing.ReconcileDetached(ctx, pm.ID)

	default:
		g.logger.InfoContext(ctx, "unhandled webhook event", "event_id", event.ID, "type", eventType)
		return ResultIgnored, nil
	}
}
