// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/user"
)

type LoginResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type CallbackRequest struct {
	Code  string `json:"code"  validate:"required,max=2048"`
	State string `json:"state" validate:"required,max=256"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	ExpiresIn    int       `json:"expiresIn"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type AuthResponse struct {
	User   user.UserResponse `json:"user"`
	Tokens TokenResponse     `json:"tokens"`
}

// MeResponse describes the caller as the gateway sees them, including the
// narrowing applied to API-key callers.
type MeResponse struct {
	User         user.UserResponse `json:"user"`
	Roles        []string          `json:"roles"`
	TenantID     string            `json:"tenantId,omitempty"`
	TenantStatus string            `json:"tenantStatus,omitempty"`
	APIKeyID     string            `json:"apiKeyId,omitempty"`
	Permissions  []string          `json:"permissions,omitempty"`
}
