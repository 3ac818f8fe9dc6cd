// AngelaMos | 2026
// types.go

package payments

import (
	"fmt"
	"net/http"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	AccountStatusOnboarding = "onboarding"
	AccountStatusRestricted = "restricted"
	AccountStatusActive     = "active"
)

type Account struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	Country          string            `json:"country"`
	DefaultCurrency  string            `json:"default_currency"`
	ChargesEnabled   bool              `json:"charges_enabled"`
	PayoutsEnabled   bool              `json:"payouts_enabled"`
	DetailsSubmitted bool              `json:"details_submitted"`
	Metadata         map[string]string `json:"metadata"`
}

// Status collapses the capability flags into the value stored on the tenant.
func (a *Account) Status() string {
	switch {
	case a.ChargesEnabled && a.PayoutsEnabled:
		return AccountStatusActive
	case a.DetailsSubmitted:
		return AccountStatusRestricted
	default:
		return AccountStatusOnboarding
	}
}

type AccountLink struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type PaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	ClientSecret string            `json:"client_secret"`
	Customer     string            `json:"customer"`
	Description  string            `json:"description"`
	Created      int64             `json:"created"`
	Metadata     map[string]string `json:"metadata"`
}

type Card struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type BankAccount struct {
	BankName string `json:"bank_name"`
	Last4    string `json:"last4"`
}

type PaymentMethod struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	Customer      string       `json:"customer"`
	Card          *Card        `json:"card,omitempty"`
	USBankAccount *BankAccount `json:"us_bank_account,omitempty"`
}

type Subscription struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Customer         string            `json:"customer"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
}

type Transfer struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	Description string `json:"description"`
}

type invoiceTransitions struct {
	PaidAt int64 `json:"paid_at"`
}

// Invoice is the subset of the processor invoice mirrored locally.
type Invoice struct {
	ID                string             `json:"id"`
	Customer          string             `json:"customer"`
	Status            string             `json:"status"`
	AmountDue         int64              `json:"amount_due"`
	AmountPaid        int64              `json:"amount_paid"`
	Currency          string             `json:"currency"`
	PeriodStart       int64              `json:"period_start"`
	PeriodEnd         int64              `json:"period_end"`
	DueDate           int64              `json:"due_date"`
	HostedInvoiceURL  string             `json:"hosted_invoice_url"`
	StatusTransitions invoiceTransitions `json:"status_transitions"`
	Metadata          map[string]string  `json:"metadata"`
}

type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Param   string `json:"param"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the payment processor.
type APIError struct {
	Op      string
	Status  int
	Type    string
	Code    string
	Message string
	Param   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("payment processor %s: %s (status %d)", e.Op, msg, e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return core.ErrNotFound
	}
	return core.ErrUpstream
}
