// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

type fakeResolver struct {
	bearer map[string]*authz.Principal
	keys   map[string]*authz.Principal
	err    error
}

func (f *fakeResolver) ResolveBearer(_ context.Context, token string) (*authz.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.bearer[token]
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	cp := *p
	return &cp, nil
}

func (f *fakeResolver) ResolveAPIKey(_ context.Context, key string) (*authz.Principal, error) {
	p, ok := f.keys[key]
	if !ok {
		return nil, core.ErrUnauthorized
	}
	cp := *p
	return &cp, nil
}

func newResolver() *fakeResolver {
	return &fakeResolver{
		bearer: map[string]*authz.Principal{
			"owner-token": {
				UserID:       "u-owner",
				Roles:        []string{authz.RoleTenantOwner},
				TenantID:     "t-1",
				TenantStatus: authz.TenantStatusActive,
			},
			"root-token": {
				UserID: "u-root",
				Roles:  []string{authz.RoleSuperAdmin},
			},
			"member-token": {
				UserID:       "u-member",
				Roles:        []string{authz.RoleUser},
				TenantID:     "t-1",
				TenantStatus: authz.TenantStatusActive,
			},
		},
		keys: map[string]*authz.Principal{
			"gw_abc.secret": {
				UserID:       "u-owner",
				Roles:        []string{authz.RoleTenantOwner},
				TenantID:     "t-1",
				TenantStatus: authz.TenantStatusActive,
				APIKeyID:     "k-1",
				Permissions:  []string{string(authz.ActionUsageWrite)},
			},
		},
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p := authz.MustFromContext(r.Context())
	core.OK(w, map[string]string{"userId": p.UserID, "tenantId": p.TenantID})
}

func TestAuthenticator(t *testing.T) {
	handler := Authenticator(newResolver(), true)(http.HandlerFunc(echoPrincipal))

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{"missing credentials", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong scheme", map[string]string{"Authorization": "Basic owner-token"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"valid bearer", map[string]string{"Authorization": "bearer owner-token"}, http.StatusOK, ""},
		{"valid api key", map[string]string{APIKeyHeader: "gw_abc.secret"}, http.StatusOK, ""},
		{"bad api key", map[string]string{APIKeyHeader: "gw_zzz.secret"}, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestAuthenticatorResolverFailure(t *testing.T) {
	resolver := newResolver()
	resolver.err = core.ErrForbidden
	handler := Authenticator(resolver, false)(http.HandlerFunc(echoPrincipal))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer owner-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "account is disabled", decodeEnvelope(t, rec).Error)
}

func TestTenantOverrideOnlyForSuperAdmin(t *testing.T) {
	handler := Authenticator(newResolver(), true)(http.HandlerFunc(echoPrincipal))

	for _, tt := range []struct {
		token      string
		wantTenant string
	}{
		{"root-token", "t-9"},
		{"owner-token", "t-1"},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		req.Header.Set(TenantIDHeader, "t-9")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeEnvelope(t, rec).Data.(map[string]any)
		assert.Equal(t, tt.wantTenant, data["tenantId"], tt.token)
	}

	disabled := Authenticator(newResolver(), false)(http.HandlerFunc(echoPrincipal))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer root-token")
	req.Header.Set(TenantIDHeader, "t-9")
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)

	data := decodeEnvelope(t, rec).Data.(map[string]any)
	assert.Equal(t, "", data["tenantId"])
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		headers    map[string]string
		action     authz.Action
		wantStatus int
	}{
		{"owner reads billing", map[string]string{"Authorization": "Bearer owner-token"}, authz.ActionBillingRead, http.StatusNoContent},
		{"member denied billing", map[string]string{"Authorization": "Bearer member-token"}, authz.ActionBillingRead, http.StatusForbidden},
		{"member reads tenant", map[string]string{"Authorization": "Bearer member-token"}, authz.ActionTenantRead, http.StatusNoContent},
		{"owner denied admin", map[string]string{"Authorization": "Bearer owner-token"}, authz.ActionAdminStats, http.StatusForbidden},
		{"root admin", map[string]string{"Authorization": "Bearer root-token"}, authz.ActionAdminStats, http.StatusNoContent},
		{"root without tenant reads tenant", map[string]string{"Authorization": "Bearer root-token"}, authz.ActionTenantRead, http.StatusNoContent},
		{"api key with permission", map[string]string{APIKeyHeader: "gw_abc.secret"}, authz.ActionUsageWrite, http.StatusNoContent},
		{"api key without permission", map[string]string{APIKeyHeader: "gw_abc.secret"}, authz.ActionBillingRead, http.StatusForbidden},
	}

	resolver := newResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Authenticator(resolver, true)(Require(tt.action)(ok))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
