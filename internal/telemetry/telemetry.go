// Package telemetry wraps log/slog and OpenTelemetry behind narrow types
// so AgentLoop, RepoTools, and ChatProvider never import either package
// directly. The Tracer defaults to otel's global no-op provider and the
// Logger to slog.Default(), so the Core runs fully offline and unit tests
// never need a collector.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the structured-logging seam. A nil *slog.Logger falls back to
// slog.Default() at construction time, matching the teacher's pattern of
// one logger per process.
type Logger struct {
	base *slog.Logger
}

// NewLogger wraps base, or slog.Default() if base is nil.
func NewLogger(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{base: base}
}

func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }

// With returns a Logger that always includes the given key-value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.base.With(args...)}
}

// Tracer emits one span per assistant turn and one per tool call, mirroring
// the teacher's emitLLMSpan/emitToolSpan calls in internal/agent/loop.go.
// A zero Tracer has no underlying tracer and must not be used; construct
// one with NewTracer.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer backed by the given tracer name. When no
// TracerProvider has been configured globally (the common case for the
// dev CLI and all tests), otel.Tracer returns a no-op implementation.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// StartLLMSpan starts a span covering one ChatProvider.Complete call.
func (t *Tracer) StartLLMSpan(ctx context.Context, runID string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "agentloop.llm_turn",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("iteration", iteration),
		),
	)
}

// StartToolSpan starts a span covering one tool dispatch.
func (t *Tracer) StartToolSpan(ctx context.Context, runID, toolName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "agentloop.tool_call",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.String("tool", toolName),
		),
	)
}

// InitTracing configures the global TracerProvider with a batched OTLP/HTTP
// span exporter, same shape as the teacher pack's observer.Init but
// trace-only — Core has no metrics or log pipeline to stand up alongside
// it. Callers should only invoke this when an OTLP endpoint is actually
// configured (otlptracehttp.New reads OTEL_EXPORTER_OTLP_ENDPOINT and
// friends from the environment); otherwise leave otel's global no-op
// TracerProvider in place, which NewTracer already falls back to. The
// returned shutdown flushes and closes the exporter and must be called
// before the process exits.
func InitTracing(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
