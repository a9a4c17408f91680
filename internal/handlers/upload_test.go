package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campaign-dashboard/internal/errors"
	"campaign-dashboard/internal/models"
)

func multipartRequest(t *testing.T, target, field, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandlers_HandleUpload(t *testing.T) {
	handlers := NewUploadHandlers(1<<20, 100, testLogger())

	csv := "age;job;y\n56;housemaid;no\n57;services;yes\n56;housemaid;no\n"
	req := multipartRequest(t, "/upload", "file", "bank.csv", csv)
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var report models.QualityReport
	if err := json.Unmarshal(decode(t, w).Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.FileName != "bank.csv" || report.ColumnCount != 3 || report.RowCount != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.DuplicateRows != 1 {
		t.Errorf("DuplicateRows = %d, want 1", report.DuplicateRows)
	}
	if report.Columns[0].InferredType != models.ColumnNumeric || report.Columns[1].InferredType != models.ColumnString {
		t.Errorf("inferred types = %s, %s", report.Columns[0].InferredType, report.Columns[1].InferredType)
	}
}

func TestUploadHandlers_TestMode(t *testing.T) {
	handlers := NewUploadHandlers(1<<20, 100, testLogger())

	req := multipartRequest(t, "/upload?test=1", "file", "bank.csv", "a,b\n1,2\n")
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	var check map[string]any
	if err := json.Unmarshal(decode(t, w).Data, &check); err != nil {
		t.Fatal(err)
	}
	if check["ok"] != true || check["fileName"] != "bank.csv" || check["size"] != float64(8) {
		t.Errorf("unexpected upload check: %v", check)
	}
}

func TestUploadHandlers_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		maxBytes int64
		req      func(t *testing.T) *http.Request
		status   int
		code     errors.ErrorCode
	}{
		{
			name:     "no file",
			maxBytes: 1 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "", "", "")
			},
			status: http.StatusBadRequest,
			code:   errors.CodeBadRequest,
		},
		{
			name:     "empty file",
			maxBytes: 1 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "empty.csv", "")
			},
			status: http.StatusBadRequest,
			code:   errors.CodeBadRequest,
		},
		{
			name:     "wrong field",
			maxBytes: 1 << 20,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "upload", "bank.csv", "a\n1\n")
			},
			status: http.StatusBadRequest,
			code:   errors.CodeBadRequest,
		},
		{
			name:     "too large",
			maxBytes: 300,
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/upload", "file", "big.csv", strings.Repeat("1,2,3\n", 100))
			},
			status: http.StatusRequestEntityTooLarge,
			code:   errors.CodeTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := NewUploadHandlers(tt.maxBytes, 100, testLogger())
			w := httptest.NewRecorder()

			handlers.HandleUpload(w, tt.req(t))

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			env := decode(t, w)
			if env.Success || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("unexpected envelope: %+v", env)
			}
			if env.Error != nil && tt.code == errors.CodeBadRequest && env.Error.Message != "No file provided." {
				t.Errorf("message = %q", env.Error.Message)
			}
		})
	}
}

func TestUploadHandlers_ScanError(t *testing.T) {
	handlers := NewUploadHandlers(1<<20, 100, testLogger())

	req := multipartRequest(t, "/upload", "file", "blank.csv", "\n\n\n")
	w := httptest.NewRecorder()

	handlers.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var report models.QualityReport
	if err := json.Unmarshal(decode(t, w).Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Error == "" {
		t.Error("expected the report to carry the scan error")
	}
}
