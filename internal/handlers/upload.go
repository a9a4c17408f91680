package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"campaign-dashboard/internal/errors"
	"campaign-dashboard/internal/observability"
	"campaign-dashboard/internal/quality"
)

const uploadField = "file"

// Outcomes counted by quality_scans_total.
const (
	scanOK       = "ok"
	scanFailed   = "failed"
	scanRejected = "rejected"
)

type UploadHandlers struct {
	maxBytes   int64
	sampleRows int
	logger     *slog.Logger
}

func NewUploadHandlers(maxBytes int64, sampleRows int, logger *slog.Logger) *UploadHandlers {
	return &UploadHandlers{
		maxBytes:   maxBytes,
		sampleRows: sampleRows,
		logger:     logger,
	}
}

type uploadCheck struct {
	OK       bool   `json:"ok"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

// HandleUpload runs the quality scan over a multipart CSV upload. With the
// test query parameter it only confirms the upload arrived.
func (h *UploadHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		observability.QualityScansTotal.WithLabelValues(scanRejected).Inc()
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			errors.WriteError(w, h.logger, errors.PayloadTooLarge("Uploaded file is too large."), requestID)
			return
		}
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "No file provided."), requestID)
		return
	}
	defer file.Close()

	if header.Size == 0 {
		observability.QualityScansTotal.WithLabelValues(scanRejected).Inc()
		errors.WriteError(w, h.logger, errors.BadRequest("No file provided."), requestID)
		return
	}

	name := filepath.Base(header.Filename)
	if r.URL.Query().Has("test") {
		errors.WriteSuccess(w, uploadCheck{OK: true, FileName: name, Size: header.Size})
		return
	}

	report := quality.Scan(r.Context(), file, name, h.sampleRows)
	if err := r.Context().Err(); err != nil {
		observability.QualityScansTotal.WithLabelValues(scanFailed).Inc()
		writeFailure(w, r, h.logger, err, "Upload canceled.")
		return
	}

	outcome := scanOK
	if report.Error != "" {
		outcome = scanFailed
		h.logger.Warn("quality scan failed", "file", name, "error", report.Error, "request_id", requestID)
	}
	observability.QualityScansTotal.WithLabelValues(outcome).Inc()

	h.logger.Info("quality scan completed",
		"file", name,
		"rows", report.RowCount,
		"columns", report.ColumnCount,
		"duplicates", report.DuplicateRows,
		"request_id", requestID,
	)
	errors.WriteSuccess(w, report)
}
