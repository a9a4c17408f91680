package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"campaign-dashboard/internal/export"
	"campaign-dashboard/internal/filter"
)

func TestExportHandlers_HandleCSV(t *testing.T) {
	handlers := NewExportHandlers(createTestDashboard(), filter.Options{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/export/csv?job=admin.", nil)
	w := httptest.NewRecorder()

	handlers.HandleCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.CSVContentType {
		t.Errorf("content-type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, export.CSVFileName) {
		t.Errorf("content-disposition = %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], `"25","admin."`) || !strings.HasPrefix(lines[2], `"55","admin."`) {
		t.Errorf("rows = %q", lines[1:])
	}
}

func TestExportHandlers_HandleXLSX(t *testing.T) {
	handlers := NewExportHandlers(createTestDashboard(), filter.Options{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/export/xlsx?marital=single", nil)
	w := httptest.NewRecorder()

	handlers.HandleXLSX(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.XLSXContentType {
		t.Errorf("content-type = %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("expected header and 2 rows, got %d", len(rows))
	}
}

func TestExportHandlers_SourceUnavailable(t *testing.T) {
	handlers := NewExportHandlers(createUnavailableDashboard(), filter.Options{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/export/csv", nil)
	w := httptest.NewRecorder()

	handlers.HandleCSV(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "" {
		t.Error("a failed export must not be served as an attachment")
	}
}
