package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"campaign-dashboard/internal/errors"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/observability"
	"campaign-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

var cacheHeaders = map[string]string{
	"Cache-Control": cacheMaxAge,
}

type APIHandlers struct {
	dashboard *services.Dashboard
	filters   filter.Options
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, filters filter.Options, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		filters:   filters,
		logger:    logger,
	}
}

// parseSpec reads the filter criteria from the query string.
func parseSpec(r *http.Request, opts filter.Options) filter.Spec {
	return filter.ParseWith(r.URL.Query(), opts)
}

// parsePage reads the 1-based page number, defaulting to 1.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	errors.WriteError(w, logger, errors.FromSource(err, message), observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.dashboard.Aggregate(r.Context(), parseSpec(r, h.filters))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to aggregate campaign data")
		return
	}
	errors.WriteSuccessWithHeaders(w, res, cacheHeaders)
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.dashboard.Summary(r.Context(), parseSpec(r, h.filters))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to summarize campaign data")
		return
	}
	errors.WriteSuccessWithHeaders(w, kpis, cacheHeaders)
}

func (h *APIHandlers) HandleGroups(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "field")
	field, ok := filter.ParseCategorical(name)
	if !ok {
		writeFailure(w, r, h.logger, errors.NotFound("Unknown field: "+name), "")
		return
	}

	groups, err := h.dashboard.Groups(r.Context(), parseSpec(r, h.filters), field)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to group campaign data")
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]any{
		"field":  field,
		"groups": groups,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleRecords(w http.ResponseWriter, r *http.Request) {
	page, err := h.dashboard.Page(r.Context(), parseSpec(r, h.filters), parsePage(r))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to read campaign records")
		return
	}
	errors.WriteSuccess(w, page)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.Ping(r.Context()); err != nil {
		appErr := errors.Wrap(err, errors.CodeServiceUnavail, "Record source is not reachable")
		errors.WriteError(w, h.logger, appErr, observability.GetRequestID(r.Context()))
		return
	}

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.dashboard.Stats(r.Context())
	stats["timestamp"] = time.Now().Format(time.RFC3339)

	errors.WriteSuccess(w, stats)
}
