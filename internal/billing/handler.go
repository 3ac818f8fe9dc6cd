// AngelaMos | 2026
// handler.go

package billing

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

// RegisterRoutes mounts under /api/billing.
func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.Require(authz.ActionBillingRead)
	write := middleware.Require(authz.ActionBillingWrite)
	subscription := middleware.Require(authz.ActionSubscriptionManage)

	r.With(read).Get("/summary", h.Summary)
	r.With(read).Get("/invoices", h.ListInvoices)
	r.With(read).Get("/invoices/{invoiceID}", h.GetInvoice)

	r.With(read).Get("/payment-methods", h.ListPaymentMethods)
	r.With(write).Post("/payment-methods", h.AddPaymentMethod)
	r.With(write).Put("/payment-methods/{methodID}/default", h.SetDefault)
	r.With(write).Delete("/payment-methods/{methodID}", h.RemovePaymentMethod)

	r.With(subscription).Post("/subscription", h.Subscribe)
	r.With(subscription).Delete("/subscription", h.CancelSubscription)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
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

	filter := InvoiceFilter{Status: r.URL.Query().Get("status"), From: from, To: to}
	if filter.Status != "" && !invoiceStatuses[filter.Status] {
		core.BadRequest(w, "status must be one of [draft open paid void uncollectible]")
		return
	}
	page := core.ParsePageParams(r)

	invoices, total, err := h.service.ListInvoices(r.Context(), authz.MustFromContext(r.Context()), filter, page)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Paginated(w, ToInvoiceResponseList(invoices), page.Page, page.Limit, total)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "invoiceID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToInvoiceResponse(inv))
}

func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListPaymentMethods(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToPaymentMethodResponseList(methods))
}

func (h *Handler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentMethodRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	pm, err := h.service.AddPaymentMethod(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToPaymentMethodResponse(pm))
}

func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	pm, err := h.service.SetDefault(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "methodID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToPaymentMethodResponse(pm))
}

func (h *Handler) RemovePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemovePaymentMethod(r.Context(), authz.MustFromContext(r.Context()), chi.URLParam(r, "methodID")); err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, nil, "payment method removed")
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	sub, err := h.service.Subscribe(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, sub)
}

func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.CancelSubscription(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OKWithMessage(w, sub, "subscription cancelled")
}
