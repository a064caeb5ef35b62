package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"statecraft/pkg/config"
	"statecraft/pkg/version"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// TelemetryConfig is read from the environment next to config.Config
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	LogLevel     string
	PrettyLogs   bool
}

// TelemetryManager owns the process logger and, when enabled, the
// OpenTelemetry trace and log providers
type TelemetryManager struct {
	config    TelemetryConfig
	build     version.Info
	out       io.Writer
	shutdowns []func(context.Context) error
	logger    *slog.Logger
}

func NewTelemetryManager(cfg *config.Config) *TelemetryManager {
	return &TelemetryManager{
		config: TelemetryConfig{
			Enabled:      cfg.EnableTelemetry,
			ServiceName:  cfg.ServiceName,
			Environment:  cfg.NodeEnv,
			OTLPEndpoint: config.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			LogLevel:     config.GetEnv("LOG_LEVEL", "info"),
			PrettyLogs:   config.GetBoolEnv("ENABLE_PRETTY_LOGS", false),
		},
		build: version.Get(cfg.ServiceName),
		out:   os.Stdout,
	}
}

// Initialize installs the default slog logger, then the exporters. Exporter
// failures are logged and leave the console logger in place.
func (tm *TelemetryManager) Initialize(ctx context.Context) error {
	tm.setupLogger()

	if !tm.config.Enabled {
		slog.Info("Telemetry disabled", "version", tm.build.Version)
		return nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(tm.resourceAttributes()...))
	if err != nil {
		return err
	}

	if err := tm.initTracing(ctx, res); err != nil {
		slog.Warn("Failed to initialize tracing", "error", err)
	}
	if err := tm.initLogging(ctx, res); err != nil {
		slog.Warn("Failed to initialize OpenTelemetry logging", "error", err)
	}

	slog.Info("Telemetry initialized",
		"version", tm.build.String(),
		"endpoint", tm.config.OTLPEndpoint,
		"log_level", tm.config.LogLevel)
	return nil
}

func (tm *TelemetryManager) resourceAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(tm.config.ServiceName),
		semconv.ServiceVersionKey.String(tm.build.Version),
		semconv.DeploymentEnvironmentKey.String(tm.config.Environment),
	}
	if tm.build.Commit != "" {
		attrs = append(attrs, attribute.String("vcs.revision", tm.build.Commit))
	}
	return attrs
}

func (tm *TelemetryManager) initTracing(ctx context.Context, res *resource.Resource) error {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(tm.config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithURLPath("/v1/traces"),
	)
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tm.shutdowns = append(tm.shutdowns, tp.Shutdown)
	return nil
}

func (tm *TelemetryManager) initLogging(ctx context.Context, res *resource.Resource) error {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(tm.config.OTLPEndpoint),
		otlploghttp.WithInsecure(),
		otlploghttp.WithURLPath("/v1/logs"),
	)
	if err != nil {
		return err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)
	tm.shutdowns = append(tm.shutdowns, lp.Shutdown)
	return nil
}

func (tm *TelemetryManager) setupLogger() {
	opts := &slog.HandlerOptions{Level: parseLogLevel(tm.config.LogLevel)}

	var handler slog.Handler
	if tm.config.PrettyLogs {
		handler = slog.NewTextHandler(tm.out, opts)
	} else {
		handler = slog.NewJSONHandler(tm.out, opts)
	}
	// the global provider delegates to the SDK provider once initLogging sets it
	if tm.config.Enabled {
		handler = NewOTelHandler(handler)
	}

	tm.logger = slog.New(handler).With("service", tm.config.ServiceName)
	slog.SetDefault(tm.logger)
}

// Shutdown flushes the exporters in reverse order of creation
func (tm *TelemetryManager) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(tm.shutdowns) - 1; i >= 0; i-- {
		if err := tm.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	tm.shutdowns = nil
	return errors.Join(errs...)
}

func (tm *TelemetryManager) Logger() *slog.Logger {
	return tm.logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
