package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"campaign-dashboard/internal/export"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/models"
	"campaign-dashboard/internal/services"
)

type ExportHandlers struct {
	dashboard *services.Dashboard
	filters   filter.Options
	logger    *slog.Logger
}

func NewExportHandlers(dashboard *services.Dashboard, filters filter.Options, logger *slog.Logger) *ExportHandlers {
	return &ExportHandlers{
		dashboard: dashboard,
		filters:   filters,
		logger:    logger,
	}
}

type writeFunc func(io.Writer, []models.CampaignRecord) error

// serve streams the filtered records. Errors after the first byte can only
// be logged.
func (h *ExportHandlers) serve(w http.ResponseWriter, r *http.Request, contentType, fileName string, write writeFunc) {
	records, err := h.dashboard.Records(r.Context(), parseSpec(r, h.filters))
	if err != nil {
		writeFailure(w, r, h.logger, err, "Export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Cache-Control", "no-store")
	if err := write(w, records); err != nil {
		h.logger.Error("export failed", "file", fileName, "records", len(records), "error", err)
		return
	}
	h.logger.Info("export completed", "file", fileName, "records", len(records))
}

func (h *ExportHandlers) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, export.CSVContentType, export.CSVFileName, export.WriteCSV)
}

func (h *ExportHandlers) HandleXLSX(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, export.XLSXContentType, export.XLSXFileName, export.WriteXLSX)
}
