// AngelaMos | 2026
// handler.go

package webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/middleware"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
)

const maxPayloadBytes = 64 << 10

type Handler struct {
	service   *Service
	ingress   *Ingress
	validator *validator.Validate
}

func NewHandler(service *Service, ingress *Ingress) *Handler {
	return &Handler{
		service:   service,
		ingress:   ingress,
		validator: core.NewValidator(),
	}
}

// RegisterAdminRoutes mounts under /api/admin.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.Require(authz.ActionAdminWebhooks))

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/{webhookID}", h.Delete)
	})
}

// RegisterIngressRoutes mounts under /api/webhooks. These routes are
// authenticated by payload signature, not by principal.
func (h *Handler) RegisterIngressRoutes(r chi.Router) {
	r.Post("/payments", h.Payments)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := core.ParsePageParams(r)

	endpoints, total, err := h.service.List(r.Context(), authz.MustFromContext(r.Context()), page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToEndpointResponseList(endpoints), page.Page, page.Limit, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEndpointRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, CreatedEndpointResponse{EndpointResponse: ToEndpointResponse(e), Secret: e.Secret})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "webhookID")); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, nil, "webhook endpoint deleted")
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.JSON(w, http.StatusRequestEntityTooLarge, core.Response{
				Success: false,
				Error:   "payload too large",
				Code:    "PAYLOAD_TOO_LARGE",
			})
			return
		}
		core.BadRequest(w, "unreadable payload")
		return
	}

	ack, err := h.ingress.Handle(r.Context(), payload, r.Header.Get(payments.SignatureHeader))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ack)
}
