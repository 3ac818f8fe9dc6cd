// AngelaMos | 2026
// handler.go

package user

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

// RegisterTenantRoutes mounts under /api/tenant. Routes that admit self
// access authorize against the loaded user instead of a route guard.
func (h *Handler) RegisterTenantRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.Require(authz.ActionUsersRead)).Get("/", h.ListTenant)
		r.With(middleware.Require(authz.ActionUsersWrite)).Post("/", h.CreateTenant)
		r.Get("/{userID}", h.Get)
		r.Put("/{userID}", h.Update)
		r.With(middleware.Require(authz.ActionUsersRoles)).Put("/{userID}/roles", h.UpdateRoles)
		r.With(middleware.Require(authz.ActionUsersStatus)).Post("/{userID}/activate", h.Activate)
		r.With(middleware.Require(authz.ActionUsersStatus)).Post("/{userID}/deactivate", h.Deactivate)
		r.Post("/{userID}/password-reset", h.PasswordReset)
	})
}

// RegisterAdminRoutes mounts under /api/admin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.Require(authz.ActionAdminUsers))

		r.Get("/", h.ListAll)
		r.Post("/", h.CreateAdmin)
		r.Get("/{userID}", h.Get)
		r.Put("/{userID}/roles", h.UpdateRoles)
		r.Post("/{userID}/activate", h.Activate)
		r.Post("/{userID}/deactivate", h.Deactivate)
	})
}

func (h *Handler) ListTenant(w http.ResponseWriter, r *http.Request) {
	p := authz.MustFromContext(r.Context())

	tenantID, err := p.RequireTenant()
	if err != nil {
		core.JSONError(w, err)
		return
	}

	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.TenantID = tenantID

	h.list(w, r, p, filter)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseFilter(w, r)
	if !ok {
		return
	}
	filter.TenantID = r.URL.Query().Get("tenantId")

	h.list(w, r, authz.MustFromContext(r.Context()), filter)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, p *authz.Principal, filter Filter) {
	page := core.ParsePageParams(r)

	users, total, err := h.service.List(r.Context(), p, filter, page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), page.Page, page.Limit, total)
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
		Search: q.Get("search"),
		Role:   q.Get("role"),
		Status: q.Get("status"),
		From:   from,
		To:     to,
	}, true
}

func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	p := authz.MustFromContext(r.Context())

	tenantID, err := p.RequireTenant()
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req CreateUserRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.Create(r.Context(), p, CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		TenantID: tenantID,
		Roles:    req.Roles,
	})
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.Create(r.Context(), authz.MustFromContext(r.Context()), CreateInput(req))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToUserResponse(u))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Get(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.Update(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	var req UpdateRolesRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	u, err := h.service.UpdateRoles(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "userID"), req.Roles)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	u, err := h.service.SetActive(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "userID"), active)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

func (h *Handler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	err := h.service.PasswordReset(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, nil, "password reset email sent")
}
