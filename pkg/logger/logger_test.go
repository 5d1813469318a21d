package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "debug", "json")
	WithComponent("loader").Debug("document loaded", "tokens", 42)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["component"] != "loader" {
		t.Errorf("component = %v", line["component"])
	}
	if line["tokens"] != float64(42) {
		t.Errorf("tokens = %v", line["tokens"])
	}
}

func TestSetupLevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "warn", "text")
	slog.Info("hidden")
	slog.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line missing")
	}
}

func TestFromContextAddsRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup(&buf, "info", "text")
	ctx := WithRequestID(context.Background(), "req-7")
	FromContext(ctx).Info("query")

	if !strings.Contains(buf.String(), "request_id=req-7") {
		t.Errorf("missing request id: %q", buf.String())
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}
