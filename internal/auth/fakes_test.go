// AngelaMos | 2026
// fakes_test.go

package auth

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/platform-gateway/internal/apikey"
	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/identity"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
	"github.com/carterperez-dev/platform-gateway/internal/user"
)

type fakeIDP struct {
	mu        sync.Mutex
	codes     map[string]string
	claims    map[string]*identity.Claims
	roles     []string
	logouts   []string
	logoutErr error
}

func newFakeIDP() *fakeIDP {
	return &fakeIDP{
		codes:  map[string]string{"code-ok": "access-alice"},
		claims: map[string]*identity.Claims{},
		roles:  []string{authz.RoleManager},
	}
}

func (f *fakeIDP) AuthorizationURL(state string) string {
	return "https://idp.test/realms/acme/protocol/openid-connect/auth?state=" + url.QueryEscape(state)
}

func (f *fakeIDP) ExchangeCode(_ context.Context, code string) (*identity.TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	access, ok := f.codes[code]
	if !ok {
		return nil, core.UnauthorizedError("invalid authorization code")
	}
	return &identity.TokenSet{AccessToken: access, RefreshToken: "refresh-" + access, ExpiresIn: 300}, nil
}

func (f *fakeIDP) Refresh(_ context.Context, refreshToken string) (*identity.TokenSet, error) {
	if refreshToken != "refresh-access-alice" {
		return nil, core.UnauthorizedError("refresh token expired")
	}
	return &identity.TokenSet{AccessToken: "access-alice-2", RefreshToken: refreshToken, ExpiresIn: 300}, nil
}

func (f *fakeIDP) Logout(_ context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts = append(f.logouts, refreshToken)
	return f.logoutErr
}

func (f *fakeIDP) ValidateToken(_ context.Context, raw string) (*identity.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.claims[raw]
	if !ok {
		return nil, fmt.Errorf("validate token: %w", core.ErrTokenInvalid)
	}
	return c, nil
}

func (f *fakeIDP) Roles(*identity.Claims) []string {
	return f.roles
}

type userStore struct {
	mu       sync.Mutex
	users    map[string]*user.User
	bySub    map[string]string
	upserted int
}

func newUserStore() *userStore {
	return &userStore{users: map[string]*user.User{}, bySub: map[string]string{}}
}

func (s *userStore) add(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.bySub[u.IDPSubject] = u.ID
}

func (s *userStore) SyncLogin(_ context.Context, profile user.LoginProfile) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted++
	now := time.Now()
	if id, ok := s.bySub[profile.Subject]; ok {
		u := s.users[id]
		u.Email = profile.Email
		u.LastLoginAt = &now
		cp := *u
		return &cp, nil
	}
	u := &user.User{
		ID:          fmt.Sprintf("u-%d", len(s.users)+1),
		IDPSubject:  profile.Subject,
		TenantID:    core.NullIfEmpty(profile.TenantID),
		Email:       profile.Email,
		Name:        profile.Name,
		Roles:       core.StringList(profile.Roles),
		IsActive:    true,
		LastLoginAt: &now,
	}
	s.users[u.ID] = u
	s.bySub[u.IDPSubject] = u.ID
	cp := *u
	return &cp, nil
}

func (s *userStore) GetBySubject(_ context.Context, subject string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.bySub[subject]; ok {
		cp := *s.users[id]
		return &cp, nil
	}
	return nil, fmt.Errorf("get user by subject: %w", core.ErrNotFound)
}

func (s *userStore) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

type tenantStore map[string]*tenant.Tenant

func (s tenantStore) GetByID(_ context.Context, id string) (*tenant.Tenant, error) {
	if t, ok := s[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("get tenant: %w", core.ErrNotFound)
}

type keyStore map[string]*apikey.APIKey

func (k keyStore) Authenticate(_ context.Context, raw string) (*apikey.APIKey, error) {
	if key, ok := k[raw]; ok {
		return key, nil
	}
	return nil, core.UnauthorizedError("invalid api key")
}

func strPtr(s string) *string { return &s }

type harness struct {
	service  *Service
	resolver *Resolver
	idp      *fakeIDP
	users    *userStore
	redis    *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := core.NewKeyStore(client, "gw:")

	idp := newFakeIDP()
	idp.claims["access-alice"] = &identity.Claims{
		Subject:   "sub-alice",
		TokenID:   "jti-alice",
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		Email:     "alice@acme.test",
		Name:      "Alice",
		TenantID:  "t-a",
	}
	idp.claims["access-root"] = &identity.Claims{Subject: "sub-root", TokenID: "jti-root"}
	idp.claims["access-ghost"] = &identity.Claims{Subject: "sub-ghost"}

	users := newUserStore()
	users.add(&user.User{
		ID:         "u-root",
		IDPSubject: "sub-root",
		Email:      "root@platform.test",
		Roles:      core.StringList{authz.RoleSuperAdmin},
		IsActive:   true,
	})
	users.add(&user.User{
		ID:         "u-off",
		IDPSubject: "sub-off",
		Email:      "off@acme.test",
		TenantID:   strPtr("t-a"),
		Roles:      core.StringList{authz.RoleUser},
	})
	idp.claims["access-off"] = &identity.Claims{Subject: "sub-off"}

	tenants := tenantStore{
		"t-a": {ID: "t-a", Status: authz.TenantStatusActive, Limits: tenant.Limits{RequestsPerMinute: 300}},
		"t-s": {ID: "t-s", Status: authz.TenantStatusSuspended},
	}
	keys := keyStore{
		"gw_platform.secret": {
			ID:          "k-platform",
			CreatedBy:   "u-root",
			Permissions: core.StringList{"*"},
			IsActive:    true,
		},
		"gw_tenant.secret": {
			ID:          "k-tenant",
			CreatedBy:   "u-root",
			TenantID:    strPtr("t-a"),
			Permissions: core.StringList{string(authz.ActionUsageWrite)},
			IsActive:    true,
		},
		"gw_orphan.secret": {ID: "k-orphan", CreatedBy: "u-gone", IsActive: true},
	}

	cfg := config.AuthConfig{StateTTL: time.Minute, BlacklistTTL: time.Minute}
	return &harness{
		service:  NewService(idp, users, store, cfg, nil, nil),
		resolver: NewResolver(idp, store, users, tenants, keys),
		idp:      idp,
		users:    users,
		redis:    mr,
	}
}
