package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pimwalk/corepipe/pkg/observability"
)

// acceptanceSpanCount is the expected number of spans in the acceptance test
// (root + partition + round).
const acceptanceSpanCount = 3

// acceptanceTaskCount is the simulated task count used in log assertions.
const acceptanceTaskCount = 42

// TestAcceptance_EndToEnd verifies all three observability signals (traces,
// metrics, structured logs with trace context) work together across a
// simulated orchestrator run.
func TestAcceptance_EndToEnd(t *testing.T) {
	t.Parallel()

	spanExporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spanExporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	tracer := tp.Tracer("corepipe")

	metricReader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(metricReader))
	meter := mp.Meter("corepipe")

	red, err := observability.NewREDMetrics(meter)
	require.NoError(t, err)

	var logBuf bytes.Buffer

	innerHandler := slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	tracingHandler := observability.NewTracingHandler(innerHandler, "corepipe", "test", observability.ModeCLI)
	logger := slog.New(tracingHandler)

	ctx, rootSpan := tracer.Start(context.Background(), "corepipe.run")

	_, partitionSpan := tracer.Start(ctx, "corepipe.partition")
	partitionSpan.End()

	_, roundSpan := tracer.Start(ctx, "corepipe.round")
	roundSpan.End()

	red.RecordRequest(ctx, "taskmgr.dispatch", "ok", time.Second)

	logger.InfoContext(ctx, "round.complete", "tasks", acceptanceTaskCount)

	rootSpan.End()

	spans := spanExporter.GetSpans()
	require.Len(t, spans, acceptanceSpanCount, "expected root + partition + round spans")

	spanNames := make(map[string]bool, len(spans))
	for _, s := range spans {
		spanNames[s.Name] = true
	}

	assert.True(t, spanNames["corepipe.run"], "root span should exist")
	assert.True(t, spanNames["corepipe.partition"], "partition span should exist")
	assert.True(t, spanNames["corepipe.round"], "round span should exist")

	traceID := spans[0].SpanContext.TraceID()
	for _, s := range spans[1:] {
		assert.Equal(t, traceID, s.SpanContext.TraceID(),
			"span %q should share trace ID", s.Name)
	}

	var rm metricdata.ResourceMetrics

	err = metricReader.Collect(ctx, &rm)
	require.NoError(t, err)

	reqTotal := findMetric(rm, "corepipe.requests.total")
	require.NotNil(t, reqTotal, "request counter should be recorded")

	reqDuration := findMetric(rm, "corepipe.request.duration.seconds")
	require.NotNil(t, reqDuration, "duration histogram should be recorded")

	var logRecord map[string]any

	err = json.Unmarshal(logBuf.Bytes(), &logRecord)
	require.NoError(t, err)

	assert.Equal(t, traceID.String(), logRecord["trace_id"],
		"log line should contain the active trace_id")
	assert.Contains(t, logRecord, "span_id",
		"log line should contain span_id")
	assert.Equal(t, "corepipe", logRecord["service"],
		"log line should contain service name")

	tasks, ok := logRecord["tasks"].(float64)
	require.True(t, ok, "tasks should be a number")
	assert.InDelta(t, acceptanceTaskCount, tasks, 0,
		"log line should contain custom attributes")
}
