package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"campaign-dashboard/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LoggerConfig
		level slog.Level
	}{
		{"json info", config.LoggerConfig{Level: "info", Format: "json"}, slog.LevelInfo},
		{"text debug", config.LoggerConfig{Level: "debug", Format: "text"}, slog.LevelDebug},
		{"warning alias", config.LoggerConfig{Level: "warning", Format: "json"}, slog.LevelWarn},
		{"unknown falls back", config.LoggerConfig{Level: "chatty", Format: "xml"}, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.cfg)
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
			if !logger.Enabled(context.Background(), tt.level) {
				t.Errorf("level %v should be enabled", tt.level)
			}
			if tt.level > slog.LevelDebug && logger.Enabled(context.Background(), tt.level-4) {
				t.Errorf("level below %v should be disabled", tt.level)
			}
		})
	}
}

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "text"})

	logger.Info("hidden")
	logger.Warn("shown", "rows", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "rows=3") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want req-1", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q", got)
	}
}

func TestSpan(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /api/dashboard")
	_, child := StartSpan(ctx, "aggregate")

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit the trace id")
	}
	if child.ParentID != parent.SpanID {
		t.Error("child should point at its parent")
	}

	child.SetTag("records", "41188")
	child.SetError(errors.New("boom"))
	d := child.Finish()
	if again := child.Finish(); again != d {
		t.Errorf("second Finish() = %v, want %v", again, d)
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("span", "span", child)
	out := buf.String()
	for _, want := range []string{"span.operation=aggregate", "span.status=ERROR", "span.records=41188", "span.error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestSpan_TraceFollowsRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	ctx, root := StartSpan(ctx, "GET /sse/dashboard")
	_, child := StartSpan(ctx, "dashboard.aggregate")

	if root.TraceID != "req-42" || child.TraceID != "req-42" {
		t.Errorf("trace ids = %q, %q; want req-42", root.TraceID, child.TraceID)
	}
	if root.SpanID == child.SpanID || len(root.SpanID) != 16 {
		t.Errorf("span ids %q, %q should be distinct 16-char ids", root.SpanID, child.SpanID)
	}

	_, orphan := StartSpan(context.Background(), "scan")
	if orphan.TraceID == "" {
		t.Error("span without a request should get a fresh trace id")
	}
}

func TestSpan_End(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, span := StartSpan(context.Background(), "export.csv")
	span.End(logger)

	out := buf.String()
	if !strings.Contains(out, "span finished") || !strings.Contains(out, "span.operation=export.csv") || !strings.Contains(out, "span.duration=") {
		t.Errorf("unexpected span log %q", out)
	}

	buf.Reset()
	_, quiet := StartSpan(context.Background(), "export.csv")
	quiet.End(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	if buf.Len() != 0 {
		t.Errorf("span should log at debug level only, got %q", buf.String())
	}
}
