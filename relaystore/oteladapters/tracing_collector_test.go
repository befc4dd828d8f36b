package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nostrkit/relay-eventstore-go/relaystore/oteladapters"
)

func Test_TracingCollector_SpanLifecycle(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	collector := oteladapters.NewTracingCollector(provider.Tracer("test"))

	ctx, spanCtx := collector.StartSpan(context.Background(), "relaystore.query", map[string]string{
		"operation": "query",
	})
	require.NotNil(t, ctx)
	require.NotNil(t, spanCtx)

	spanCtx.AddAttribute("event_count", "7")
	collector.FinishSpan(spanCtx, "success", map[string]string{"result": "ok"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "relaystore.query", span.Name)
	assert.Equal(t, codes.Ok, span.Status.Code)

	assertSpanHasAttribute(t, span, "operation", "query")
	assertSpanHasAttribute(t, span, "event_count", "7")
	assertSpanHasAttribute(t, span, "result", "ok")
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		status       string
		expectedCode codes.Code
	}{
		{name: "success_maps_to_ok", status: "success", expectedCode: codes.Ok},
		{name: "error_maps_to_error", status: "error", expectedCode: codes.Error},
		{name: "timeout_maps_to_error", status: "timeout", expectedCode: codes.Error},
		{name: "cancelled_maps_to_error", status: "cancelled", expectedCode: codes.Error},
		{name: "unknown_keeps_unset_code", status: "whatever", expectedCode: codes.Unset},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			collector := oteladapters.NewTracingCollector(provider.Tracer("test"))

			_, spanCtx := collector.StartSpan(context.Background(), "relaystore.create", nil)
			collector.FinishSpan(spanCtx, tc.status, nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
		})
	}
}

func Test_TracingCollector_FinishSpanIgnoresForeignSpanContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	collector := oteladapters.NewTracingCollector(provider.Tracer("test"))

	assert.NotPanics(t, func() {
		collector.FinishSpan(nil, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, value string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if string(attr.Key) == key && attr.Value.AsString() == value {
			return
		}
	}

	t.Errorf("span %s is missing attribute %s=%s", span.Name, key, value)
}
