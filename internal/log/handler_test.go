package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	ctxlog "github.com/ErlanBelekov/prompt-studio/internal/log"
	"github.com/ErlanBelekov/prompt-studio/internal/reqctx"
)

func TestContextHandler_AddsRequestValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ctxlog.NewContextHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := reqctx.WithRequestID(context.Background(), "req-1")
	ctx = reqctx.WithClientIP(ctx, "1.2.3.4")
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", rec["request_id"])
	}
	if rec["client_ip"] != "1.2.3.4" {
		t.Errorf("client_ip = %v, want 1.2.3.4", rec["client_ip"])
	}
	if _, ok := rec["user_id"]; ok {
		t.Errorf("user_id should be omitted when absent, got %v", rec["user_id"])
	}
}
