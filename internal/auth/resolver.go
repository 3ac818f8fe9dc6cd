// AngelaMos | 2026
// resolver.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/apikey"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/identity"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
	"github.com/carterperez-dev/platform-gateway/internal/user"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, raw string) (*identity.Claims, error)
}

type TenantLookup interface {
	GetByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

type KeyAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*apikey.APIKey, error)
}

// Resolver builds principals from bearer tokens and API keys. Roles come
// from the users table, never from the token.
type Resolver struct {
	tokens  TokenValidator
	revoked StateStore
	users   UserStore
	tenants TenantLookup
	keys    KeyAuthenticator
}

func NewResolver(
	tokens TokenValidator,
	revoked StateStore,
	users UserStore,
	tenants TenantLookup,
	keys KeyAuthenticator,
) *Resolver {
	return &Resolver{
		tokens:  tokens,
		revoked: revoked,
		users:   users,
		tenants: tenants,
		keys:    keys,
	}
}

func (r *Resolver) ResolveBearer(ctx context.Context, raw string) (*authz.Principal, error) {
	claims, err := r.tokens.ValidateToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	if claims.TokenID != "" {
		revoked, err := r.revoked.Exists(ctx, blacklistPrefix+claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, core.TokenRevokedError()
		}
	}

	u, err := r.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("user has not completed login")
		}
		return nil, err
	}

	p, err := r.principalFor(ctx, u, u.Tenant())
	if err != nil {
		return nil, err
	}
	p.TokenID = claims.TokenID
	if claims.ExpiresAt > 0 {
		p.TokenExpiry = time.Unix(claims.ExpiresAt, 0)
	}

	return p, nil
}

// ResolveAPIKey acts as the key's creator, narrowed to the key's permissions.
// A tenant-scoped key minted by a platform operator acts as a tenant admin
// inside that tenant and nowhere else.
func (r *Resolver) ResolveAPIKey(ctx context.Context, raw string) (*authz.Principal, error) {
	key, err := r.keys.Authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}

	creator, err := r.users.GetByID(ctx, key.CreatedBy)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.UnauthorizedError("api key owner no longer exists")
		}
		return nil, err
	}

	tenantID := key.Tenant()
	if tenantID == "" {
		tenantID = creator.Tenant()
	}

	p, err := r.principalFor(ctx, creator, tenantID)
	if err != nil {
		return nil, err
	}

	if key.Tenant() != "" && p.IsSuperAdmin() {
		p.Roles = slices.DeleteFunc(p.Roles, func(role string) bool { return role == authz.RoleSuperAdmin })
		if !p.HasRole(authz.RoleAdmin) {
			p.Roles = append(p.Roles, authz.RoleAdmin)
		}
	}
	p.APIKeyID = key.ID
	p.Permissions = slices.Clone([]string(key.Permissions))

	return p, nil
}

func (r *Resolver) principalFor(ctx context.Context, u *user.User, tenantID string) (*authz.Principal, error) {
	if !u.IsActive {
		return nil, core.ForbiddenError("account is disabled")
	}

	p := &authz.Principal{
		UserID:    u.ID,
		SubjectID: u.IDPSubject,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     slices.Clone([]string(u.Roles)),
		TenantID:  tenantID,
	}

	if tenantID != "" {
		t, err := r.tenants.GetByID(ctx, tenantID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return nil, core.ForbiddenError("tenant no longer exists")
			}
			return nil, err
		}
		p.TenantStatus = t.Status
		p.RateLimit = t.Limits.RequestsPerMinute
	}

	return p, nil
}
