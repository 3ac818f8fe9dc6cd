// AngelaMos | 2026
// handler_test.go

package tenant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
)

func router(h *Handler, p *authz.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authz.WithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/api/tenant", h.RegisterTenantRoutes)
	r.Route("/api/admin", h.RegisterAdminRoutes)
	return r
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Data    TenantResponse `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetCurrentTenant(t *testing.T) {
	svc, _ := seededService()
	rec := do(router(NewHandler(svc), adminA), http.MethodGet, "/api/tenant", "")

	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "t-a", env.Data.ID)
	assert.Equal(t, PlanStarter, env.Data.Plan)
}

func TestUpdateCurrentTenantRequiresAdmin(t *testing.T) {
	svc, _ := seededService()
	member := &authz.Principal{UserID: "m", Roles: []string{authz.RoleUser}, TenantID: "t-a",
		TenantStatus: authz.TenantStatusActive}

	rec := do(router(NewHandler(svc), member), http.MethodPut, "/api/tenant", `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router(NewHandler(svc), adminA), http.MethodPut, "/api/tenant", `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode(t, rec).Data.Name)
}

func TestTransferOwnerValidatesBody(t *testing.T) {
	svc, _ := seededService()
	h := router(NewHandler(svc), ownerA)

	rec := do(h, http.MethodPut, "/api/tenant/owner", `{"userId":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/api/tenant/owner", `{"userId":"7f1d2c3e-0000-4000-8000-000000000001"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7f1d2c3e-0000-4000-8000-000000000001", decode(t, rec).Data.OwnerID)
}

func TestAdminRoutesRequireSuperAdmin(t *testing.T) {
	svc, _ := seededService()

	rec := do(router(NewHandler(svc), ownerA), http.MethodGet, "/api/admin/tenants", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router(NewHandler(svc), root), http.MethodGet, "/api/admin/tenants?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data []TenantResponse `json:"data"`
		Meta core.Meta        `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "t-b", list.Data[0].ID)
}

func TestAdminLifecycleRoutes(t *testing.T) {
	svc, _ := seededService()
	h := router(NewHandler(svc), root)

	rec := do(h, http.MethodPost, "/api/admin/tenants/t-b/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, authz.TenantStatusActive, decode(t, rec).Data.Status)

	rec = do(h, http.MethodPost, "/api/admin/tenants/t-b/activate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodDelete, "/api/admin/tenants/t-b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, authz.TenantStatusCancelled, decode(t, rec).Data.Status)
}
