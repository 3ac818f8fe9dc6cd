// AngelaMos | 2026
// handler.go

package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterTenantRoutes mounts under /api/tenant.
func (h *Handler) RegisterTenantRoutes(r chi.Router) {
	r.With(middleware.Require(authz.ActionTenantRead)).Get("/", h.GetCurrent)
	r.With(middleware.Require(authz.ActionTenantUpdate)).Put("/", h.UpdateCurrent)
	r.With(middleware.Require(authz.ActionTenantTransferOwner)).Put("/owner", h.TransferOwner)
}

// RegisterAdminRoutes mounts under /api/admin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/tenants", func(r chi.Router) {
		r.Use(middleware.Require(authz.ActionAdminTenants))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{tenantID}", h.Get)
		r.Put("/{tenantID}", h.AdminUpdate)
		r.Delete("/{tenantID}", h.lifecycle(ActionCancel))
		r.Post("/{tenantID}/activate", h.lifecycle(ActionActivate))
		r.Post("/{tenantID}/suspend", h.lifecycle(ActionSuspend))
		r.Post("/{tenantID}/reactivate", h.lifecycle(ActionReactivate))
		r.Post("/{tenantID}/cancel", h.lifecycle(ActionCancel))
	})
}

func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Current(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) UpdateCurrent(w http.ResponseWriter, r *http.Request) {
	p := authz.MustFromContext(r.Context())

	tenantID, err := p.RequireTenant()
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateTenantRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Update(r.Context(), p, tenantID, req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) TransferOwner(w http.ResponseWriter, r *http.Request) {
	var req TransferOwnerRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.TransferOwner(r.Context(), authz.MustFromContext(r.Context()), req.UserID)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := core.QueryTime(r, "from")
	if err != nil {
		core.JSONError(w, err)
		return
	}
	to, err := core.QueryTime(r, "to")
	if err != nil {
		core.JSONError(w, err)
		return
	}

	filter := Filter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Plan:   q.Get("plan"),
		From:   from,
		To:     to,
	}
	page := core.ParsePageParams(r)

	tenants, total, err := h.service.List(r.Context(), authz.MustFromContext(r.Context()), filter, page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToTenantResponseList(tenants), page.Page, page.Limit, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Create(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToTenantResponse(t))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "tenantID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req AdminUpdateTenantRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.AdminUpdate(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "tenantID"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToTenantResponse(t))
}

func (h *Handler) lifecycle(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.service.Transition(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "tenantID"), action)
		if err != nil {
			core.JSONError(w, err)
			return
		}

		core.OK(w, ToTenantResponse(t))
	}
}
