package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpanRecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, span := StartSpan(context.Background(), "BookingService.Book")
	RecordError(span, errors.New("trainer full"))
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "BookingService.Book", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
}

func TestLoggerFromContextAddsTraceIDs(t *testing.T) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider())

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	LoggerFromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), span.SpanContext().TraceID().String())

	buf.Reset()
	LoggerFromContext(context.Background()).Info().Msg("plain")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestWithRunTagsContextLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	ctx := WithRun(context.Background(), "auto_schedule", "2030-01-07")
	LoggerFromContext(ctx).Info().Msg("unit placed")

	assert.Contains(t, buf.String(), `"run":"auto_schedule"`)
	assert.Contains(t, buf.String(), `"week_start_date":"2030-01-07"`)

	buf.Reset()
	LoggerFromContext(context.Background()).Info().Msg("no run")
	assert.NotContains(t, buf.String(), `"run"`)
}

func TestRecordRequestMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m, err := InitMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	RecordRequestMetric(ctx, m, "POST", "POST /api/appointments", 201, 12*time.Millisecond)
	RecordCacheResult(ctx, m, "schedule_report", false)
	RecordRequestMetric(ctx, nil, "GET", "/health", 200, time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			names[metric.Name] = true
		}
	}
	assert.True(t, names["http.server.request.count"])
	assert.True(t, names["http.server.request.duration"])
	assert.True(t, names["cache.miss.count"])
	assert.False(t, names["cache.hit.count"])
}
