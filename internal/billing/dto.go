// AngelaMos | 2026
// dto.go

package billing

import (
	"time"
)

type AddPaymentMethodRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required,max=255"`
	SetDefault      bool   `json:"setDefault"`
}

type SubscribeRequest struct {
	Plan string `json:"plan" validate:"required,oneof=starter professional enterprise"`
}

type PaymentMethodResponse struct {
	ID          string    `json:"id"`
	ProcessorID string    `json:"processorId"`
	Type        string    `json:"type"`
	Brand       string    `json:"brand,omitempty"`
	Last4       string    `json:"last4,omitempty"`
	ExpMonth    int       `json:"expMonth,omitempty"`
	ExpYear     int       `json:"expYear,omitempty"`
	BankName    string    `json:"bankName,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func ToPaymentMethodResponse(pm *PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:          pm.ID,
		ProcessorID: pm.ProcessorID,
		Type:        pm.Type,
		Brand:       deref(pm.Brand),
		Last4:       deref(pm.Last4),
		ExpMonth:    deref(pm.ExpMonth),
		ExpYear:     deref(pm.ExpYear),
		BankName:    deref(pm.BankName),
		IsDefault:   pm.IsDefault,
		CreatedAt:   pm.CreatedAt,
	}
}

func ToPaymentMethodResponseList(methods []PaymentMethod) []PaymentMethodResponse {
	out := make([]PaymentMethodResponse, len(methods))
	for i := range methods {
		out[i] = ToPaymentMethodResponse(&methods[i])
	}
	return out
}

type InvoiceResponse struct {
	ID                 string     `json:"id"`
	ProcessorInvoiceID string     `json:"processorInvoiceId"`
	PeriodStart        *time.Time `json:"periodStart,omitempty"`
	PeriodEnd          *time.Time `json:"periodEnd,omitempty"`
	Amount             int64      `json:"amount"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	HostedURL          string     `json:"hostedUrl,omitempty"`
	DueAt              *time.Time `json:"dueAt,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

func ToInvoiceResponse(inv *Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:                 inv.ID,
		ProcessorInvoiceID: inv.ProcessorInvoiceID,
		PeriodStart:        inv.PeriodStart,
		PeriodEnd:          inv.PeriodEnd,
		Amount:             inv.Amount,
		Currency:           inv.Currency,
		Status:             inv.Status,
		HostedURL:          deref(inv.HostedURL),
		DueAt:              inv.DueAt,
		PaidAt:             inv.PaidAt,
		CreatedAt:          inv.CreatedAt,
	}
}

func ToInvoiceResponseList(invoices []Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

type SubscriptionResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Plan            string     `json:"plan"`
	NextBillingDate *time.Time `json:"nextBillingDate,omitempty"`
}

// Summary is the billing overview for one tenant.
type Summary struct {
	Plan                 string                 `json:"plan"`
	Status               string                 `json:"status"`
	MonthlyPrice         int64                  `json:"monthlyPrice"`
	Currency             string                 `json:"currency"`
	SubscriptionID       string                 `json:"subscriptionId,omitempty"`
	NextBillingDate      *time.Time             `json:"nextBillingDate,omitempty"`
	DefaultPaymentMethod *PaymentMethodResponse `json:"defaultPaymentMethod,omitempty"`
	PaymentMethodCount   int                    `json:"paymentMethodCount"`
	Invoices             InvoiceTotals          `json:"invoices"`
}
