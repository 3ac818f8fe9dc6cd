// AngelaMos | 2026
// policy.go

package authz

import (
	"fmt"

	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type Action string

const (
	ActionTenantRead          Action = "tenant:read"
	ActionTenantUpdate        Action = "tenant:write"
	ActionTenantTransferOwner Action = "tenant:transfer_owner"

	ActionUsersRead          Action = "users:read"
	ActionUsersWrite         Action = "users:write"
	ActionUsersRoles         Action = "users:roles"
	ActionUsersStatus        Action = "users:status"
	ActionUsersPasswordReset Action = "users:password_reset"

	ActionAuditRead Action = "audit:read"

	ActionDashboardRead   Action = "dashboard:read"
	ActionDashboardExport Action = "dashboard:export"

	ActionBillingRead        Action = "billing:read"
	ActionBillingWrite       Action = "billing:write"
	ActionSubscriptionManage Action = "billing:subscription"
	ActionUsageWrite         Action = "usage:write"

	ActionPaymentAccount  Action = "payment:account"
	ActionPaymentIntents  Action = "payment:intents"
	ActionPaymentTransfer Action = "payment:transfer"

	ActionAdminTenants  Action = "admin:tenants"
	ActionAdminUsers    Action = "admin:users"
	ActionAdminAudit    Action = "admin:audit"
	ActionAdminAPIKeys  Action = "admin:api_keys"
	ActionAdminWebhooks Action = "admin:webhooks"
	ActionAdminStats    Action = "admin:stats"
)

// Rule admits callers holding any of Roles. An empty Roles admits every
// member of the target tenant.
type Rule struct {
	Roles        []string
	TenantScoped bool
	AllowSelf    bool
}

var (
	ownerOnly     = []string{RoleTenantOwner}
	ownerAdmin    = []string{RoleTenantOwner, RoleAdmin}
	ownerAdminMgr = []string{RoleTenantOwner, RoleAdmin, RoleManager}
	platformOnly  = []string{RoleSuperAdmin}
)

var Policy = map[Action]Rule{
	ActionTenantRead:          {TenantScoped: true},
	ActionTenantUpdate:        {Roles: ownerAdmin, TenantScoped: true},
	ActionTenantTransferOwner: {Roles: ownerOnly, TenantScoped: true},

	ActionUsersRead:          {Roles: ownerAdminMgr, TenantScoped: true, AllowSelf: true},
	ActionUsersWrite:         {Roles: ownerAdmin, TenantScoped: true, AllowSelf: true},
	ActionUsersRoles:         {Roles: ownerAdmin, TenantScoped: true},
	ActionUsersStatus:        {Roles: ownerAdmin, TenantScoped: true},
	ActionUsersPasswordReset: {Roles: ownerAdmin, TenantScoped: true, AllowSelf: true},

	ActionAuditRead: {Roles: ownerAdmin, TenantScoped: true},

	ActionDashboardRead:   {Roles: ownerAdminMgr, TenantScoped: true},
	ActionDashboardExport: {Roles: ownerAdmin, TenantScoped: true},

	ActionBillingRead:        {Roles: ownerAdminMgr, TenantScoped: true},
	ActionBillingWrite:       {Roles: ownerAdmin, TenantScoped: true},
	ActionSubscriptionManage: {Roles: ownerOnly, TenantScoped: true},
	ActionUsageWrite:         {Roles: ownerAdmin, TenantScoped: true},

	ActionPaymentAccount:  {Roles: ownerOnly, TenantScoped: true},
	ActionPaymentIntents:  {Roles: ownerAdminMgr, TenantScoped: true},
	ActionPaymentTransfer: {Roles: platformOnly},

	ActionAdminTenants:  {Roles: platformOnly},
	ActionAdminUsers:    {Roles: platformOnly},
	ActionAdminAudit:    {Roles: platformOnly},
	ActionAdminAPIKeys:  {Roles: platformOnly},
	ActionAdminWebhooks: {Roles: platformOnly},
	ActionAdminStats:    {Roles: platformOnly},
}

// Target is the resource an action touches. Zero fields mean the caller's
// own tenant and no particular user.
type Target struct {
	TenantID string
	UserID   string
}

// Authorize is the single admission decision for every route.
func Authorize(p *Principal, action Action, target Target) error {
	if p == nil {
		return core.UnauthorizedError("")
	}

	rule, ok := Policy[action]
	if !ok {
		return core.ForbiddenError(fmt.Sprintf("unknown action %s", action))
	}

	if p.IsAPIKey() && !p.permits(action) {
		return core.ForbiddenError("api key lacks permission " + string(action))
	}

	if p.IsSuperAdmin() {
		return nil
	}

	// Self access never outlives the tenant.
	if rule.TenantScoped && p.HasTenant() &&
		(p.TenantStatus == TenantStatusSuspended || p.TenantStatus == TenantStatusCancelled) {
		return core.ForbiddenError("tenant is " + p.TenantStatus)
	}

	if rule.AllowSelf && p.IsSelf(target.UserID) {
		return nil
	}

	if rule.TenantScoped {
		if !p.HasTenant() {
			return core.TenantRequiredError()
		}
		if target.TenantID != "" && target.TenantID != p.TenantID {
			return core.ForbiddenError("resource belongs to another tenant")
		}
	}

	if len(rule.Roles) > 0 && !p.HasAnyRole(rule.Roles...) {
		return core.ForbiddenError("")
	}

	return nil
}
