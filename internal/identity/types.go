// AngelaMos | 2026
// types.go

package identity

import (
	"fmt"
	"net/http"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

// TokenSet is the token endpoint response.
type TokenSet struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	IDToken          string `json:"id_token,omitempty"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
}

type UserInfo struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
}

func (u *UserInfo) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.PreferredUsername != "" {
		return u.PreferredUsername
	}
	return u.Email
}

type roleSet struct {
	Roles []string `json:"roles"`
}

// Claims is the verified access token payload.
type Claims struct {
	Subject           string             `json:"sub"`
	Issuer            string             `json:"iss"`
	TokenID           string             `json:"jti"`
	ExpiresAt         int64              `json:"exp"`
	AuthorizedParty   string             `json:"azp"`
	Email             string             `json:"email"`
	Name              string             `json:"name"`
	PreferredUsername string             `json:"preferred_username"`
	Picture           string             `json:"picture"`
	TenantID          string             `json:"tenant_id"`
	RealmAccess       roleSet            `json:"realm_access"`
	ResourceAccess    map[string]roleSet `json:"resource_access"`
	Groups            []string           `json:"groups"`
}

// ProviderError is a non-2xx answer from the identity provider.
type ProviderError struct {
	Op          string
	Status      int
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *ProviderError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("identity provider %s: %s (status %d)", e.Op, msg, e.Status)
}

// Unwrap reports rejected grants as an authentication failure and
// everything else as an upstream failure.
func (e *ProviderError) Unwrap() error {
	switch {
	case e.Code == "invalid_grant":
		return core.ErrUnauthorized
	case e.Status == http.StatusConflict:
		return core.ErrDuplicateKey
	case e.Status == http.StatusNotFound:
		return core.ErrNotFound
	default:
		return core.ErrUpstream
	}
}
