// AngelaMos | 2026
// ingress_test.go

package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/carterperez-dev/platform-gateway/internal/billing"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
)

const signingSecret = "whsec_ingress"

type secretVerifier string

func (v secretVerifier) VerifyWebhook(payload []byte, header string) (stripe.Event, error) {
	return payments.VerifyWebhook(payload, header, string(v), time.Minute)
}

type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (r *recorder) add(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.fail
}

func (r *recorder) ReconcileAccountStatus(_ context.Context, accountID, status string) error {
	return r.add("account:" + accountID + ":" + status)
}

func (r *recorder) ReconcileSubscription(_ context.Context, customerID, subscriptionID string, periodEnd *time.Time) error {
	return r.add(fmt.Sprintf("subscription:%s:%s:%t", customerID, subscriptionID, periodEnd != nil))
}

func (r *recorder) ReconcileCancellation(_ context.Context, customerID, subscriptionID string) error {
	return r.add("cancel:" + customerID + ":" + subscriptionID)
}

func (r *recorder) ReconcileInvoice(_ context.Context, inv *payments.Invoice) (*billing.Invoice, error) {
	if err := r.add("invoice:" + inv.ID + ":" + inv.Status); err != nil {
		return nil, err
	}
	return &billing.Invoice{ID: "inv-1", ProcessorInvoiceID: inv.ID}, nil
}

func (r *recorder) ReconcileDetached(_ context.Context, processorID string) error {
	return r.add("detached:" + processorID)
}

func newIngress(t *testing.T) (*Ingress, *recorder, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rec := &recorder{}
	return NewIngress(IngressConfig{
		Verifier:     secretVerifier(signingSecret),
		Dedupe:       core.NewKeyStore(client, "gw:"),
		DedupeWindow: time.Hour,
		Tenants:      rec,
		Billing:      rec,
	}), rec, mr
}

func eventJSON(id, eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"data":{"object":%s}}`, id, eventType, object))
}

func sign(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    signingSecret,
		Timestamp: time.Now(),
	}).Header
}

func TestIngressDispatch(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		object string
		call   string
		result string
	}{
		{
			name:   "account",
			typ:    EventAccountUpdated,
			object: `{"id":"acct_1","charges_enabled":true,"payouts_enabled":true}`,
			call:   "account:acct_1:active",
			result: ResultProcessed,
		},
		{
			name:   "invoice paid",
			typ:    "invoice.paid",
			object: `{"id":"in_1","customer":"cus_1","status":"paid","amount_paid":2900}`,
			call:   "invoice:in_1:paid",
			result: ResultProcessed,
		},
		{
			name:   "subscription updated",
			typ:    EventSubscriptionUpdated,
			object: `{"id":"sub_2","customer":"cus_1","status":"active","current_period_end":1767225600}`,
			call:   "subscription:cus_1:sub_2:true",
			result: ResultProcessed,
		},
		{
			name:   "subscription deleted",
			typ:    EventSubscriptionDeleted,
			object: `{"id":"sub_2","customer":"cus_1","status":"canceled"}`,
			call:   "cancel:cus_1:sub_2",
			result: ResultProcessed,
		},
		{
			name:   "payment method detached",
			typ:    EventPaymentMethodDetached,
			object: `{"id":"pm_1","type":"card"}`,
			call:   "detached:pm_1",
			result: ResultProcessed,
		},
		{
			name:   "payment intent succeeded",
			typ:    EventPaymentIntentSucceeded,
			object: `{"id":"pi_1","amount":500,"currency":"usd","metadata":{"tenant_id":"t-a"}}`,
			result: ResultProcessed,
		},
		{
			name:   "unknown",
			typ:    "charge.refunded",
			object: `{"id":"ch_1"}`,
			result: ResultIgnored,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec, _ := newIngress(t)
			payload := eventJSON(fmt.Sprintf("evt_%d", i), tt.typ, tt.object)

			ack, err := g.Handle(context.Background(), payload, sign(payload))
			require.NoError(t, err)
			assert.True(t, ack.Received)
			assert.Equal(t, tt.result, ack.Result)
			if tt.call == "" {
				assert.Empty(t, rec.calls)
			} else {
				assert.Equal(t, []string{tt.call}, rec.calls)
			}
		})
	}
}

func TestIngressDeduplicates(t *testing.T) {
	g, rec, mr := newIngress(t)
	payload := eventJSON("evt_dup", "invoice.finalized", `{"id":"in_9","customer":"cus_1","status":"open"}`)

	ack, err := g.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, ack.Result)
	assert.True(t, mr.Exists("gw:webhook:evt_dup"))

	ack, err = g.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, ack.Result)
	assert.Len(t, rec.calls, 1)
}

func TestIngressFailureReleasesClaim(t *testing.T) {
	g, rec, mr := newIngress(t)
	rec.fail = errors.New("database unavailable")
	payload := eventJSON("evt_retry", EventAccountUpdated, `{"id":"acct_1"}`)

	_, err := g.Handle(context.Background(), payload, sign(payload))
	require.Error(t, err)
	assert.False(t, mr.Exists("gw:webhook:evt_retry"))

	rec.fail = nil
	ack, err := g.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, ack.Result)
	assert.Len(t, rec.calls, 2)
}

func TestIngressUnknownObjectIsAcknowledged(t *testing.T) {
	g, rec, mr := newIngress(t)
	rec.fail = fmt.Errorf("get tenant by customer: %w", core.ErrNotFound)
	payload := eventJSON("evt_orphan", EventSubscriptionDeleted, `{"id":"sub_x","customer":"cus_x"}`)

	ack, err := g.Handle(context.Background(), payload, sign(payload))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, ack.Result)
	assert.True(t, mr.Exists("gw:webhook:evt_orphan"))
}

func TestPaymentsRouteRejectsBadSignature(t *testing.T) {
	g, rec, mr := newIngress(t)
	h := NewHandler(nil, g)
	payload := eventJSON("evt_forged", EventAccountUpdated, `{"id":"acct_1"}`)

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(string(payload)))
	req.Header.Set(payments.SignatureHeader, "t=1,v1=00")
	w := httptest.NewRecorder()
	h.Payments(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SIGNATURE")
	assert.Empty(t, rec.calls)
	assert.False(t, mr.Exists("gw:webhook:evt_forged"))

	req = httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(string(payload)))
	req.Header.Set(payments.SignatureHeader, sign(payload))
	w = httptest.NewRecorder()
	h.Payments(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
