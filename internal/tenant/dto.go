// AngelaMos | 2026
// dto.go

package tenant

import (
	"time"
)

type CreateTenantRequest struct {
	Name     string         `json:"name"    validate:"required,min=1,max=200"`
	Domain   string         `json:"domain"  validate:"required,fqdn,max=253"`
	Plan     string         `json:"plan"    validate:"omitempty,oneof=free starter professional enterprise"`
	OwnerID  string         `json:"ownerId" validate:"omitempty,uuid"`
	Limits   *Limits        `json:"limits"`
	Settings map[string]any `json:"settings"`
}

// UpdateTenantRequest is what a tenant's own owner or admin may change.
type UpdateTenantRequest struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Settings map[string]any `json:"settings,omitempty"`
}

type AdminUpdateTenantRequest struct {
	Name     *string        `json:"name,omitempty"   validate:"omitempty,min=1,max=200"`
	Domain   *string        `json:"domain,omitempty" validate:"omitempty,fqdn,max=253"`
	Plan     *string        `json:"plan,omitempty"   validate:"omitempty,oneof=free starter professional enterprise"`
	Limits   *Limits        `json:"limits,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

type TransferOwnerRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type TenantResponse struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Domain                 string         `json:"domain"`
	Status                 string         `json:"status"`
	Plan                   string         `json:"plan"`
	Limits                 Limits         `json:"limits"`
	Settings               map[string]any `json:"settings"`
	OwnerID                string         `json:"ownerId,omitempty"`
	ConnectedAccountStatus string         `json:"connectedAccountStatus,omitempty"`
	SubscriptionID         string         `json:"subscriptionId,omitempty"`
	MonthlyPrice           int64          `json:"monthlyPrice"`
	Currency               string         `json:"currency"`
	NextBillingDate        *time.Time     `json:"nextBillingDate,omitempty"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

func ToTenantResponse(t *Tenant) TenantResponse {
	settings := map[string]any(t.Settings)
	if settings == nil {
		settings = map[string]any{}
	}

	resp := TenantResponse{
		ID:              t.ID,
		Name:            t.Name,
		Domain:          t.Domain,
		Status:          t.Status,
		Plan:            t.Plan,
		Limits:          t.Limits,
		Settings:        settings,
		OwnerID:         t.Owner(),
		MonthlyPrice:    t.MonthlyPrice,
		Currency:        t.Currency,
		NextBillingDate: t.NextBillingDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.ConnectedAccountStatus != nil {
		resp.ConnectedAccountStatus = *t.ConnectedAccountStatus
	}
	if t.SubscriptionID != nil {
		resp.SubscriptionID = *t.SubscriptionID
	}
	return resp
}

func ToTenantResponseList(tenants []Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, ToTenantResponse(&tenants[i]))
	}
	return out
}
