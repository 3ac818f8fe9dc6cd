// AngelaMos | 2026
// entity.go

package billing

import (
	"time"
)

// PaymentMethod mirrors a processor payment method attached to a tenant's
// customer. At most one per tenant has IsDefault set.
type PaymentMethod struct {
	ID          string    `db:"id"`
	TenantID    string    `db:"tenant_id"`
	ProcessorID string    `db:"processor_id"`
	Type        string    `db:"type"`
	Brand       *string   `db:"brand"`
	Last4       *string   `db:"last4"`
	ExpMonth    *int      `db:"exp_month"`
	ExpYear     *int      `db:"exp_year"`
	BankName    *string   `db:"bank_name"`
	IsDefault   bool      `db:"is_default"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

const (
	InvoiceDraft         = "draft"
	InvoiceOpen          = "open"
	InvoicePaid          = "paid"
	InvoiceVoid          = "void"
	InvoiceUncollectible = "uncollectible"
)

// Invoice is the local mirror of a processor invoice, written only by
// webhook reconciliation.
type Invoice struct {
	ID                 string     `db:"id"`
	TenantID           string     `db:"tenant_id"`
	ProcessorInvoiceID string     `db:"processor_invoice_id"`
	PeriodStart        *time.Time `db:"period_start"`
	PeriodEnd          *time.Time `db:"period_end"`
	Amount             int64      `db:"amount"`
	Currency           string     `db:"currency"`
	Status             string     `db:"status"`
	HostedURL          *string    `db:"hosted_url"`
	DueAt              *time.Time `db:"due_at"`
	PaidAt             *time.Time `db:"paid_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

type InvoiceFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

// InvoiceTotals summarizes a tenant's invoice history.
type InvoiceTotals struct {
	OpenCount  int        `db:"open_count"   json:"openCount"`
	OpenAmount int64      `db:"open_amount"  json:"openAmount"`
	PaidAmount int64      `db:"paid_amount"  json:"paidAmount"`
	LastPaidAt *time.Time `db:"last_paid_at" json:"lastPaidAt,omitempty"`
}
