package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"editorial/internal/config"
	"editorial/internal/observability"
)

func TestStdoutProviderExportsSpans(t *testing.T) {
	cfg := config.Default().Tracing
	cfg.Enabled = true
	cfg.SampleRatio = 1

	var out bytes.Buffer
	provider, err := observability.NewTracerProvider(context.Background(), cfg, &out)
	require.NoError(t, err)

	_, span := provider.Tracer("editorial/test").Start(context.Background(), "archive.export")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, out.String(), "archive.export")
	assert.Contains(t, out.String(), "editoriald")
}

func TestZeroSampleRatioDropsRootSpans(t *testing.T) {
	cfg := config.Default().Tracing
	cfg.Enabled = true
	cfg.SampleRatio = 0

	var out bytes.Buffer
	provider, err := observability.NewTracerProvider(context.Background(), cfg, &out)
	require.NoError(t, err)

	_, span := provider.Tracer("editorial/test").Start(context.Background(), "archive.export")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))
	assert.Empty(t, out.String())
}

func TestSetupDisabledLeavesGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()
	shutdown, err := observability.Setup(context.Background(), config.Default().Tracing, nil)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.Same(t, before, otel.GetTracerProvider())
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracerProviderRejectsUnknownExporter(t *testing.T) {
	cfg := config.Default().Tracing
	cfg.Exporter = "jaeger"
	_, err := observability.NewTracerProvider(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jaeger")
}

func TestOTLPExporterBuildsWithoutDialing(t *testing.T) {
	cfg := config.Default().Tracing
	cfg.Exporter = config.ExporterOTLP
	cfg.Endpoint = "http://127.0.0.1:4318"
	provider, err := observability.NewTracerProvider(context.Background(), cfg, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)
}
