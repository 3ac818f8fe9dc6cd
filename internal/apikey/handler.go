// AngelaMos | 2026
// handler.go

package apikey

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

// RegisterAdminRoutes mounts under /api/admin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/api-keys", func(r chi.Router) {
		r.Use(middleware.Require(authz.ActionAdminAPIKeys))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/{keyID}", h.Revoke)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		TenantID: q.Get("tenantId"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
	}
	page := core.ParsePageParams(r)

	keys, total, err := h.service.List(r.Context(), authz.MustFromContext(r.Context()), filter, page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToAPIKeyResponseList(keys), page.Page, page.Limit, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, CreatedAPIKeyResponse{
		APIKeyResponse: ToAPIKeyResponse(created.Key),
		Key:            created.Plaintext,
	})
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.Revoke(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "keyID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, ToAPIKeyResponse(key), "api key revoked")
}
