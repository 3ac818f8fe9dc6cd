// AngelaMos | 2026
// entity.go

package audit

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	ResourceTenant        = "tenant"
	ResourceUser          = "user"
	ResourceAuth          = "auth"
	ResourceAPIKey        = "api_key"
	ResourceWebhook       = "webhook"
	ResourcePaymentMethod = "payment_method"
	ResourceSubscription  = "subscription"
	ResourceInvoice       = "invoice"
	ResourcePayment       = "payment"
	ResourceUsage         = "usage"
)

// Log rows are append-only.
type Log struct {
	ID         string       `db:"id"`
	Action     string       `db:"action"`
	Resource   string       `db:"resource"`
	ResourceID *string      `db:"resource_id"`
	UserID     *string      `db:"user_id"`
	TenantID   *string      `db:"tenant_id"`
	IPAddress  *string      `db:"ip_address"`
	UserAgent  *string      `db:"user_agent"`
	Metadata   core.JSONMap `db:"metadata"`
	CreatedAt  time.Time    `db:"created_at"`
}

type Filter struct {
	Resource string
	Action   string
	TenantID string
	UserID   string
	From     *time.Time
	To       *time.Time
}
