package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey int

const slogAttrsKey ctxKey = iota

// AppendCtx returns a context carrying the given attr in addition to any
// attrs already stored on the parent context.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	attrs, _ := parent.Value(slogAttrsKey).([]slog.Attr)
	attrs = append(attrs[:len(attrs):len(attrs)], attr)

	return context.WithValue(parent, slogAttrsKey, attrs)
}

// ContextHandler adds attrs stored on the context to every record.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs, ok := ctx.Value(slogAttrsKey).([]slog.Attr); ok {
		rec.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, rec)
}
