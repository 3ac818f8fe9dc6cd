// AngelaMos | 2026
// entity.go

package webhook

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// Endpoint is an outbound subscriber registered by a platform operator.
type Endpoint struct {
	ID        string          `db:"id"`
	URL       string          `db:"url"`
	Events    core.StringList `db:"events"`
	Secret    string          `db:"secret"`
	IsActive  bool            `db:"is_active"`
	CreatedBy *string         `db:"created_by"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Processor event types the gateway reconciles.
const (
	EventAccountUpdated         = "account.updated"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentMethodDetached  = "payment_method.detached"
	invoicePrefix               = "invoice."
)

// Ingestion outcomes, used as the metrics result label.
const (
	ResultProcessed = "processed"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
	ResultFailed    = "failed"
	ResultRejected  = "rejected"
)
