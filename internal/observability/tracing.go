// Package observability wires OpenTelemetry tracing for the daemon.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"editorial/internal/config"
	"editorial/internal/logging"
)

const batchTimeout = 5 * time.Second

// Setup installs the global tracer provider and propagator described by cfg
// and returns the function that flushes and stops it. With tracing disabled
// nothing is installed and shutdown is a no-op.
func Setup(ctx context.Context, cfg config.Tracing, logger *slog.Logger) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	provider, err := NewTracerProvider(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if logger != nil {
		logger.Info("otel tracing initialized",
			logging.String("service", cfg.ServiceName),
			logging.String("exporter", cfg.Exporter),
			logging.String("endpoint", cfg.Endpoint),
			logging.Float64("sample_ratio", cfg.SampleRatio),
		)
	}
	return provider.Shutdown, nil
}

// NewTracerProvider builds a batching provider for cfg. The stdout exporter
// writes to w.
func NewTracerProvider(ctx context.Context, cfg config.Tracing, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(ctx, cfg, w)
	if err != nil {
		return nil, fmt.Errorf("init %s trace exporter: %w", cfg.Exporter, err)
	}
	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		attribute.String("service.component", cfg.ServiceName),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	), nil
}

func newExporter(ctx context.Context, cfg config.Tracing, w io.Writer) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case config.ExporterOTLP:
		var opts []otlptracehttp.Option
		if strings.Contains(cfg.Endpoint, "://") {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		} else {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case config.ExporterStdout, "":
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w))
	default:
		return nil, fmt.Errorf("unknown exporter %q", cfg.Exporter)
	}
}
