// Package observability wires zap logging and OpenTelemetry tracing for the services.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceVersion = "0.1.0"
	LogsPath       = "/otlp/v1/logs"
	TracesPath     = "/otlp/v1/traces"
	ExportTimeout  = 30 * time.Second
	MaxQueueSize   = 2048
)

// Settings selects the OTLP collector. An empty Endpoint keeps the no-op providers.
type Settings struct {
	ServiceName string
	Endpoint    string
	AuthHeader  string
}

func (s Settings) headers() map[string]string {
	if s.AuthHeader == "" {
		return nil
	}
	return map[string]string{"Authorization": s.AuthHeader}
}

func newResource(s Settings) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(s.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
}

// Setup installs the global tracer and logger providers and returns a shutdown func
// that flushes both. Propagation is always installed so trace context crosses service
// hops even when nothing is exported.
func Setup(ctx context.Context, s Settings) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if s.Endpoint == "" {
		return shutdown, nil
	}

	res, err := newResource(s)
	if err != nil {
		return shutdown, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(s.Endpoint),
		otlptracehttp.WithURLPath(TracesPath),
		otlptracehttp.WithHeaders(s.headers()),
	)
	if err != nil {
		return shutdown, fmt.Errorf("OTLP trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter,
			sdktrace.WithExportTimeout(ExportTimeout),
			sdktrace.WithMaxQueueSize(MaxQueueSize),
		)),
	)
	otel.SetTracerProvider(tracerProvider)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)

	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(s.Endpoint),
		otlploghttp.WithURLPath(LogsPath),
		otlploghttp.WithHeaders(s.headers()),
	)
	if err != nil {
		return shutdown, fmt.Errorf("OTLP log exporter: %w", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter,
			sdklog.WithExportTimeout(ExportTimeout),
			sdklog.WithMaxQueueSize(MaxQueueSize),
		)),
	)
	global.SetLoggerProvider(loggerProvider)
	shutdownFuncs = append(shutdownFuncs, loggerProvider.Shutdown)

	return shutdown, nil
}
