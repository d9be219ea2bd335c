package observability

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/geocoder89/projectpulse/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// NewLogger returns a JSON logger. Records written with a request context get the
// trace/span ids, request id and acting user attached.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" || env == "test" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(contextHandler{next: handler}).With(
		slog.String("service", ServiceName),
		slog.String("env", env),
	)
}

type contextHandler struct {
	next slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	if id := actorctx.RequestIDFrom(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}

	if u, ok := actorctx.UserFrom(ctx); ok {
		r.AddAttrs(
			slog.Int64("user_id", u.ID),
			slog.String("user_role", string(u.Role)),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name)}
}
