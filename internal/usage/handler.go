// AngelaMos | 2026
// handler.go

package usage

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/platform-gateway/internal/authz"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

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

// RegisterDashboardRoutes mounts under /api/dashboard.
func (h *Handler) RegisterDashboardRoutes(r chi.Router) {
	r.With(middleware.Require(authz.ActionDashboardRead)).Get("/stats", h.Stats)
	r.With(middleware.Require(authz.ActionDashboardRead)).Get("/usage", h.Daily)
	r.With(middleware.Require(authz.ActionDashboardExport)).Get("/usage/export", h.Export)
}

// RegisterBillingRoutes mounts the metering endpoint under /api/billing.
func (h *Handler) RegisterBillingRoutes(r chi.Router) {
	r.With(middleware.Require(authz.ActionUsageWrite)).Post("/usage", h.Ingest)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), authz.MustFromContext(r.Context()))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, stats)
}

func parseQuery(r *http.Request) (Query, error) {
	q := Query{
		TenantID:     r.URL.Query().Get("tenantId"),
		ResourceType: r.URL.Query().Get("resource"),
	}

	from, err := core.QueryTime(r, "from")
	if err != nil {
		return Query{}, err
	}
	to, err := core.QueryTime(r, "to")
	if err != nil {
		return Query{}, err
	}
	if from != nil {
		q.From = *from
	}
	if to != nil {
		q.To = *to
	}

	return q, nil
}

func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	buckets, err := h.service.Daily(r.Context(), authz.MustFromContext(r.Context()), q)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.OK(w, ToBucketResponseList(buckets))
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	data, err := h.service.Export(r.Context(), authz.MustFromContext(r.Context()), q)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	filename := fmt.Sprintf("usage-%s.xlsx", time.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = w.Write(data)
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !core.Bind(w, r, h.validator, &req) {
		return
	}

	rec, err := h.service.Ingest(r.Context(), authz.MustFromContext(r.Context()), req)
	if err != nil {
		core.JSONError(w, err)
		return
	}

	core.Created(w, ToRecordResponse(rec))
}
