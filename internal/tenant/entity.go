// AngelaMos | 2026
// entity.go

package tenant

import (
	"database/sql/driver"
	"slices"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Tenant struct {
	ID                     string       `db:"id"`
	Name                   string       `db:"name"`
	Domain                 string       `db:"domain"`
	Status                 string       `db:"status"`
	Plan                   string       `db:"plan"`
	Limits                 Limits       `db:"limits"`
	Settings               core.JSONMap `db:"settings"`
	ProcessorCustomerID    *string      `db:"processor_customer_id"`
	ConnectedAccountID     *string      `db:"connected_account_id"`
	ConnectedAccountStatus *string      `db:"connected_account_status"`
	SubscriptionID         *string      `db:"subscription_id"`
	MonthlyPrice           int64        `db:"monthly_price"`
	Currency               string       `db:"currency"`
	NextBillingDate        *time.Time   `db:"next_billing_date"`
	OwnerID                *string      `db:"owner_id"`
	CreatedAt              time.Time    `db:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at"`
}

func (t *Tenant) CustomerID() string {
	if t.ProcessorCustomerID == nil {
		return ""
	}
	return *t.ProcessorCustomerID
}

func (t *Tenant) AccountID() string {
	if t.ConnectedAccountID == nil {
		return ""
	}
	return *t.ConnectedAccountID
}

func (t *Tenant) Owner() string {
	if t.OwnerID == nil {
		return ""
	}
	return *t.OwnerID
}

func (t *Tenant) Usable() bool {
	return t.Status == authz.TenantStatusActive || t.Status == authz.TenantStatusPending
}

// Limits is stored as a jsonb object.
type Limits struct {
	Users             int   `json:"users"`
	APICallsPerMonth  int64 `json:"apiCallsPerMonth"`
	StorageGB         int   `json:"storageGb"`
	RequestsPerMinute int   `json:"requestsPerMinute"`
}

func (l *Limits) Scan(src any) error {
	return core.ScanJSON(src, l)
}

func (l Limits) Value() (driver.Value, error) {
	return core.JSONValue(l)
}

const (
	PlanFree         = "free"
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

type PlanDefaults struct {
	Limits       Limits
	MonthlyPrice int64
}

// Plans holds per-plan allowances; prices are in cents.
var Plans = map[string]PlanDefaults{
	PlanFree: {
		Limits:       Limits{Users: 3, APICallsPerMonth: 10_000, StorageGB: 1, RequestsPerMinute: 60},
		MonthlyPrice: 0,
	},
	PlanStarter: {
		Limits:       Limits{Users: 10, APICallsPerMonth: 100_000, StorageGB: 10, RequestsPerMinute: 300},
		MonthlyPrice: 2_900,
	},
	PlanProfessional: {
		Limits:       Limits{Users: 50, APICallsPerMonth: 1_000_000, StorageGB: 100, RequestsPerMinute: 1_000},
		MonthlyPrice: 9_900,
	},
	PlanEnterprise: {
		Limits:       Limits{Users: 1_000, APICallsPerMonth: 25_000_000, StorageGB: 1_000, RequestsPerMinute: 5_000},
		MonthlyPrice: 49_900,
	},
}

// Lifecycle actions an administrator can apply.
const (
	ActionActivate   = "activate"
	ActionSuspend    = "suspend"
	ActionReactivate = "reactivate"
	ActionCancel     = "cancel"
)

type transition struct {
	from []string
	to   string
}

var lifecycle = map[string]transition{
	ActionActivate: {
		from: []string{authz.TenantStatusPending},
		to:   authz.TenantStatusActive,
	},
	ActionSuspend: {
		from: []string{authz.TenantStatusActive},
		to:   authz.TenantStatusSuspended,
	},
	ActionReactivate: {
		from: []string{authz.TenantStatusSuspended},
		to:   authz.TenantStatusActive,
	},
	ActionCancel: {
		from: []string{authz.TenantStatusPending, authz.TenantStatusActive, authz.TenantStatusSuspended},
		to:   authz.TenantStatusCancelled,
	},
}

// NextStatus reports the status action moves current to.
func NextStatus(current, action string) (string, error) {
	tr, ok := lifecycle[action]
	if !ok {
		return "", core.ValidationError("unknown lifecycle action " + action)
	}
	if !slices.Contains(tr.from, current) {
		return "", core.ValidationError("cannot " + action + " a " + current + " tenant")
	}
	return tr.to, nil
}

type Filter struct {
	Search string
	Status string
	Plan   string
	From   *time.Time
	To     *time.Time
}
