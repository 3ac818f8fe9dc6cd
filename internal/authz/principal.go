// AngelaMos | 2026
// principal.go

package authz

import (
	"context"
	"slices"
	"time"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantOwner = "tenant_owner"
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleUser        = "user"
)

// AssignableRoles are the roles a tenant owner or admin may grant. Ownership
// only moves through an ownership transfer.
var AssignableRoles = []string{RoleAdmin, RoleManager, RoleUser}

const (
	TenantStatusPending   = "pending"
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusCancelled = "cancelled"
)

// Principal is the authenticated caller. API-key callers act as the key's
// creator, narrowed to the key's tenant and permission set.
type Principal struct {
	UserID       string
	SubjectID    string
	Email        string
	Name         string
	Roles        []string
	TenantID     string
	TenantStatus string
	APIKeyID     string
	Permissions  []string
	TokenID      string
	TokenExpiry  time.Time
	// RateLimit is the tenant's requests per minute; zero means the global default.
	RateLimit int
}

func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p *Principal) IsSuperAdmin() bool {
	return p.HasRole(RoleSuperAdmin)
}

func (p *Principal) IsSelf(userID string) bool {
	return userID != "" && p.UserID == userID
}

func (p *Principal) IsAPIKey() bool {
	return p.APIKeyID != ""
}

func (p *Principal) HasTenant() bool {
	return p.TenantID != ""
}

// RequireTenant is for routes that only make sense inside one tenant.
func (p *Principal) RequireTenant() (string, error) {
	if p == nil || p.TenantID == "" {
		return "", core.TenantRequiredError()
	}
	return p.TenantID, nil
}

func (p *Principal) permits(action Action) bool {
	for _, perm := range p.Permissions {
		if perm == "*" || perm == string(action) {
			return true
		}
	}
	return false
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// MustFromContext is for handlers mounted behind the authenticator.
func MustFromContext(ctx context.Context) *Principal {
	p, ok := FromContext(ctx)
	if !ok {
		panic("authz: no principal in context")
	}
	return p
}
