// AngelaMos | 2026
// webhook.go

package payments

import (
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	SignatureHeader         = "Stripe-Signature"
	defaultWebhookTolerance = 5 * time.Minute
)

// VerifyWebhook checks the timestamped HMAC-SHA256 signature on payload and
// returns the decoded event. Stale timestamps and mismatched signatures are
// rejected the same way.
func (c *Client) VerifyWebhook(payload []byte, header string) (stripe.Event, error) {
	return VerifyWebhook(payload, header, c.webhookSecret, c.tolerance)
}

func VerifyWebhook(payload []byte, header, secret string, tolerance time.Duration) (stripe.Event, error) {
	if tolerance <= 0 {
		tolerance = defaultWebhookTolerance
	}

	if secret == "" || header == "" {
		return stripe.Event{}, invalidSignature(webhook.ErrNotSigned)
	}

	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, invalidSignature(err)
	}

	return event, nil
}

func invalidSignature(err error) *core.AppError {
	return core.NewAppError(err, "invalid webhook signature", http.StatusBadRequest, "INVALID_SIGNATURE")
}
