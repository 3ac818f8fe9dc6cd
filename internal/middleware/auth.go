// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	APIKeyHeader   = "X-API-Key"
	TenantIDHeader = "X-Tenant-ID"
)

// PrincipalResolver turns presented credentials into a Principal.
type PrincipalResolver interface {
	ResolveBearer(ctx context.Context, token string) (*authz.Principal, error)
	ResolveAPIKey(ctx context.Context, key string) (*authz.Principal, error)
}

// Authenticator rejects requests without valid credentials. With
// tenantOverride set, a super_admin may pick a tenant via X-Tenant-ID.
func Authenticator(resolver PrincipalResolver, tenantOverride bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolve(r, resolver)
			if err != nil {
				handleAuthError(w, err)
				return
			}
			if principal == nil {
				core.JSONError(w, core.UnauthorizedError("missing authorization token"))
				return
			}

			if tenantOverride {
				applyTenantOverride(r, principal)
			}

			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), principal)))
		})
	}
}

// Require admits the request when the caller may perform action on their
// own tenant. Handlers with a concrete target call authz.Authorize again.
func Require(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := authz.FromContext(r.Context())
			if err := authz.Authorize(principal, action, authz.Target{}); err != nil {
				core.JSONError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolve(r *http.Request, resolver PrincipalResolver) (*authz.Principal, error) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		return resolver.ResolveAPIKey(r.Context(), key)
	}
	if token := ExtractToken(r); token != "" {
		return resolver.ResolveBearer(r.Context(), token)
	}
	return nil, nil
}

// applyTenantOverride lets a platform admin act inside a chosen tenant.
func applyTenantOverride(r *http.Request, p *authz.Principal) {
	if !p.IsSuperAdmin() {
		return
	}
	if tenantID := strings.TrimSpace(r.Header.Get(TenantIDHeader)); tenantID != "" {
		p.TenantID = tenantID
		p.TenantStatus = ""
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	case errors.Is(err, core.ErrForbidden):
		core.JSONError(w, core.ForbiddenError("account is disabled"))
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrNotFound):
		core.JSONError(w, core.UnauthorizedError("invalid credentials"))
	default:
		core.InternalServerError(w, err)
	}
}
