// AngelaMos | 2026
// dto.go

package apikey

import (
	"time"
)

type CreateAPIKeyRequest struct {
	Name        string     `json:"name"        validate:"required,min=1,max=100"`
	TenantID    string     `json:"tenantId"    validate:"omitempty,uuid"`
	Permissions []string   `json:"permissions" validate:"required,min=1,dive,required,max=64"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type APIKeyResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Prefix      string     `json:"prefix"`
	Permissions []string   `json:"permissions"`
	TenantID    string     `json:"tenantId,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreatedAPIKeyResponse is the only response that carries the plaintext key.
type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

func ToAPIKeyResponse(k *APIKey) APIKeyResponse {
	perms := []string(k.Permissions)
	if perms == nil {
		perms = []string{}
	}

	return APIKeyResponse{
		ID:          k.ID,
		Name:        k.Name,
		Prefix:      k.KeyPrefix,
		Permissions: perms,
		TenantID:    k.Tenant(),
		CreatedBy:   k.CreatedBy,
		IsActive:    k.IsActive,
		ExpiresAt:   k.ExpiresAt,
		LastUsedAt:  k.LastUsedAt,
		CreatedAt:   k.CreatedAt,
	}
}

func ToAPIKeyResponseList(keys []APIKey) []APIKeyResponse {
	out := make([]APIKeyResponse, len(keys))
	for i := range keys {
		out[i] = ToAPIKeyResponse(&keys[i])
	}
	return out
}
