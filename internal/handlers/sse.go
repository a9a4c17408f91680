package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/services"
	"campaign-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	dashboard *services.Dashboard
	filters   filter.Options
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, filters filter.Options, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		filters:   filters,
		logger:    logger,
	}
}

func renderHTML(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// chartSignals is the signal payload the dashboard charts bind to.
func chartSignals(res models.AggregationResult) ([]byte, error) {
	return json.Marshal(map[string]any{
		"charts":      res.Charts(),
		"scatterMode": res.ScatterMode,
		"kpis":        res.KPIs,
	})
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleDashboard patches the chart signals and the KPI panel for the
// filters in the query string.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := h.dashboard.Aggregate(r.Context(), parseSpec(r, h.filters))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to aggregate campaign data")
		return
	}
	signals, err := chartSignals(res)
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to encode chart data")
		return
	}
	panel, err := renderHTML(r.Context(), templates.KPIPanel(res.KPIs))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to render KPI panel")
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchSignals(signals); err != nil {
		h.logger.Warn("patch chart signals", "error", err)
		return
	}
	if err := sse.PatchElements(panel); err != nil {
		h.logger.Warn("patch kpi panel", "error", err)
		return
	}
	flush(w)
}

// HandleTable patches the record table with the requested page.
func (h *SSEHandlers) HandleTable(w http.ResponseWriter, r *http.Request) {
	spec := parseSpec(r, h.filters)
	page, err := h.dashboard.Page(r.Context(), spec, parsePage(r))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to read campaign records")
		return
	}
	table, err := renderHTML(r.Context(), templates.RecordTable(page, spec.Query()))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Failed to render record table")
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElements(table); err != nil {
		h.logger.Warn("patch record table", "error", err)
		return
	}
	flush(w)
}
