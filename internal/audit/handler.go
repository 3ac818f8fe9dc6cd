// AngelaMos | 2026
// handler.go

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/middleware"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterTenantRoutes mounts under /api/tenant.
func (h *Handler) RegisterTenantRoutes(r chi.Router) {
	r.With(middleware.Require(authz.ActionAuditRead)).Get("/audit-logs", h.ListTenant)
}

// RegisterAdminRoutes mounts under /api/admin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.With(middleware.Require(authz.ActionAdminAudit)).Get("/audit-logs", h.ListAll)
}

func (h *Handler) ListTenant(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.TenantID = authz.MustFromContext(r.Context()).TenantID

	h.list(w, r, filter)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.TenantID = r.URL.Query().Get("tenantId")

	h.list(w, r, filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter Filter) {
	page := core.ParsePageParams(r)

	logs, total, err := h.repo.List(r.Context(), filter, page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToLogResponseList(logs), page.Page, page.Limit, total)
}

func parseFilter(w http.ResponseWriter, r *http.Request) (Filter, bool) {
	q := r.URL.Query()

	from, err := core.QueryTime(r, "from")
	if err != nil {
		core.JSONError(w, err)
		return Filter{}, false
	}
	to, err := core.QueryTime(r, "to")
	if err != nil {
		core.JSONError(w, err)
		return Filter{}, false
	}

	return Filter{
		Resource: q.Get("resource"),
		Action:   q.Get("action"),
		UserID:   q.Get("userId"),
		From:     from,
		To:       to,
	}, true
}
