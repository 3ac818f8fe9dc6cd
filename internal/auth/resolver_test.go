// AngelaMos | 2026
// resolver_test.go

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func TestResolveBearer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("platform operator", func(t *testing.T) {
		p, err := h.resolver.ResolveBearer(ctx, "access-root")
		require.NoError(t, err)
		assert.True(t, p.IsSuperAdmin())
		assert.Empty(t, p.TenantID)
		assert.Equal(t, "jti-root", p.TokenID)
	})

	t.Run("tenant member carries tenant state", func(t *testing.T) {
		_, err := h.service.Callback(ctx, CallbackRequest{Code: "code-ok", State: login(t, h)})
		require.NoError(t, err)

		p, err := h.resolver.ResolveBearer(ctx, "access-alice")
		require.NoError(t, err)
		assert.Equal(t, "t-a", p.TenantID)
		assert.Equal(t, authz.TenantStatusActive, p.TenantStatus)
		assert.Equal(t, 300, p.RateLimit)
		assert.False(t, p.TokenExpiry.IsZero())
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := h.resolver.ResolveBearer(ctx, "forged")
		assert.ErrorIs(t, err, core.ErrTokenInvalid)
	})

	t.Run("valid token without login", func(t *testing.T) {
		_, err := h.resolver.ResolveBearer(ctx, "access-ghost")
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("disabled account", func(t *testing.T) {
		_, err := h.resolver.ResolveBearer(ctx, "access-off")
		assert.ErrorIs(t, err, core.ErrForbidden)
	})
}

func TestResolveAPIKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("platform key keeps creator roles", func(t *testing.T) {
		p, err := h.resolver.ResolveAPIKey(ctx, "gw_platform.secret")
		require.NoError(t, err)
		assert.True(t, p.IsSuperAdmin())
		assert.True(t, p.IsAPIKey())
		assert.NoError(t, authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}))
	})

	t.Run("tenant key is confined to its tenant", func(t *testing.T) {
		p, err := h.resolver.ResolveAPIKey(ctx, "gw_tenant.secret")
		require.NoError(t, err)
		assert.False(t, p.IsSuperAdmin())
		assert.Equal(t, []string{authz.RoleAdmin}, p.Roles)
		assert.Equal(t, "t-a", p.TenantID)

		assert.NoError(t, authz.Authorize(p, authz.ActionUsageWrite, authz.Target{}))
		assert.ErrorIs(t, authz.Authorize(p, authz.ActionBillingRead, authz.Target{}), core.ErrForbidden)
		assert.ErrorIs(t, authz.Authorize(p, authz.ActionUsageWrite, authz.Target{TenantID: "t-b"}), core.ErrForbidden)
		assert.ErrorIs(t, authz.Authorize(p, authz.ActionAdminTenants, authz.Target{}), core.ErrForbidden)
	})

	t.Run("creator gone", func(t *testing.T) {
		_, err := h.resolver.ResolveAPIKey(ctx, "gw_orphan.secret")
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := h.resolver.ResolveAPIKey(ctx, "gw_nope.secret")
		assert.ErrorIs(t, err, core.ErrUnauthorized)
	})
}
