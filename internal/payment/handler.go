// AngelaMos | 2026
// handler.go

package payment

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

// RegisterRoutes mounts under /api/payment.
func (h *Handler) RegisterRoutes(r chi.Router) {
	account := middleware.Require(authz.ActionPaymentAccount)
	intents := middleware.Require(authz.ActionPaymentIntents)

	r.With(account).Post("/connect", h.Connect)
	r.With(account).Get("/account", h.Account)

	r.With(intents).Post("/intents", h.CreateIntent)
	r.With(intents).Get("/intents/{intentID}", h.GetIntent)

	r.With(middleware.Require(authz.ActionPaymentTransfer)).Post("/transfers", h.Transfer)
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if r.ContentLength != 0 && !core.Bind(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Connect(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	acct, err := h.service.Account(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req CreateIntentRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	pi, err := h.service.CreateIntent(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToIntentResponse(pi, true))
}

func (h *Handler) GetIntent(w http.ResponseWriter, r *http.Request) {
	pi, err := h.service.GetIntent(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "intentID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToIntentResponse(pi, false))
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	tr, err := h.service.Transfer(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, tr)
}
