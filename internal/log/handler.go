package log

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/prompt-studio/internal/reqctx"
)

// ContextHandler wraps an slog.Handler and copies request-scoped values
// (request_id, client_ip, user_id) from the context onto each record.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		for _, kv := range [...]struct{ key, val string }{
			{"request_id", reqctx.RequestID(ctx)},
			{"client_ip", reqctx.ClientIP(ctx)},
			{"user_id", reqctx.UserID(ctx)},
		} {
			if kv.val != "" {
				r.AddAttrs(slog.String(kv.key, kv.val))
			}
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
