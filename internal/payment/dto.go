// AngelaMos | 2026
// dto.go

package payment

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/payments"
)

type ConnectRequest struct {
	Country string `json:"country" validate:"omitempty,len=2"`
}

type CreateIntentRequest struct {
	Amount               int64  `json:"amount"               validate:"required,min=50,max=99999999"`
	Currency             string `json:"currency"             validate:"omitempty,len=3"`
	Customer             string `json:"customer"             validate:"omitempty,max=255"`
	PaymentMethod        string `json:"paymentMethod"        validate:"omitempty,max=255"`
	Description          string `json:"description"          validate:"omitempty,max=500"`
	ApplicationFeeAmount int64  `json:"applicationFeeAmount" validate:"min=0"`
}

type CreateTransferRequest struct {
	TenantID    string `json:"tenantId"    validate:"required,uuid"`
	Amount      int64  `json:"amount"      validate:"required,min=1"`
	Currency    string `json:"currency"    validate:"omitempty,len=3"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type AccountResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	Country          string `json:"country,omitempty"`
	DefaultCurrency  string `json:"defaultCurrency,omitempty"`
}

func ToAccountResponse(a *payments.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Status:           a.Status(),
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
		Country:          a.Country,
		DefaultCurrency:  a.DefaultCurrency,
	}
}

// ConnectResponse carries the onboarding link the tenant owner follows.
type ConnectResponse struct {
	Account       AccountResponse `json:"account"`
	OnboardingURL string          `json:"onboardingUrl"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
}

type IntentResponse struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToIntentResponse(pi *payments.PaymentIntent, withSecret bool) IntentResponse {
	resp := IntentResponse{
		ID:          pi.ID,
		Amount:      pi.Amount,
		Currency:    pi.Currency,
		Status:      pi.Status,
		Description: pi.Description,
		CreatedAt:   time.Unix(pi.Created, 0).UTC(),
	}
	if withSecret {
		resp.ClientSecret = pi.ClientSecret
	}
	return resp
}

type TransferResponse struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
}
