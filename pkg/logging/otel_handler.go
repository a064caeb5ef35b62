package logging

import (
	"context"
	"log/slog"

	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationScope names the logger that engine records are emitted on
const instrumentationScope = "statecraft/engine"

// bridgeHandler writes each record to the console handler and forwards a
// copy to the OpenTelemetry log pipeline. Attributes added with WithAttrs
// and WithGroup are carried on the forwarded copy too, keyed by their
// dotted group path.
type bridgeHandler struct {
	console slog.Handler
	emitter otellog.Logger
	group   string
	attrs   []otellog.KeyValue
}

func newBridgeHandler(console slog.Handler, emitter otellog.Logger) *bridgeHandler {
	return &bridgeHandler{console: console, emitter: emitter}
}

// NewOTelHandler bridges console to the global OpenTelemetry logger provider
func NewOTelHandler(console slog.Handler) slog.Handler {
	return newBridgeHandler(console, global.GetLoggerProvider().Logger(instrumentationScope))
}

func (h *bridgeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level)
}

func (h *bridgeHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.console.Handle(ctx, r); err != nil {
		return err
	}

	var rec otellog.Record
	rec.SetTimestamp(r.Time)
	rec.SetBody(otellog.StringValue(r.Message))
	rec.SetSeverity(severityOf(r.Level))
	rec.SetSeverityText(r.Level.String())

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttributes(
			otellog.String("trace_id", sc.TraceID().String()),
			otellog.String("span_id", sc.SpanID().String()),
		)
	}
	rec.AddAttributes(h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		rec.AddAttributes(h.keyValue(a))
		return true
	})

	h.emitter.Emit(ctx, rec)
	return nil
}

func (h *bridgeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	next.console = h.console.WithAttrs(attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.keyValue(a))
	}
	return next
}

func (h *bridgeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.console = h.console.WithGroup(name)
	next.group = qualify(h.group, name)
	return next
}

func (h *bridgeHandler) clone() *bridgeHandler {
	return &bridgeHandler{
		console: h.console,
		emitter: h.emitter,
		group:   h.group,
		attrs:   append([]otellog.KeyValue(nil), h.attrs...),
	}
}

func (h *bridgeHandler) keyValue(a slog.Attr) otellog.KeyValue {
	return otellog.String(qualify(h.group, a.Key), a.Value.Resolve().String())
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}

// severityOf maps slog levels, including custom in-between levels, onto the
// OpenTelemetry severity range
func severityOf(level slog.Level) otellog.Severity {
	switch {
	case level < slog.LevelInfo:
		return otellog.SeverityDebug
	case level < slog.LevelWarn:
		return otellog.SeverityInfo
	case level < slog.LevelError:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityError
	}
}
