// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/carterperez-dev/dentflow/internal/config"
)

func recordedSpan(t *testing.T, fn func(ctx context.Context)) sdktrace.ReadOnlySpan {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	fn(ctx)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func TestTagSession(t *testing.T) {
	span := recordedSpan(t, func(ctx context.Context) {
		TagSession(ctx, "tenant-1", "user-1", "DENTIST")
	})

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "tenant-1", attrs[string(AttrTenantID)])
	assert.Equal(t, "user-1", attrs[string(AttrUserID)])
	assert.Equal(t, "DENTIST", attrs[string(AttrRole)])
}

func TestSpanEvent_DropsTrailingKey(t *testing.T) {
	span := recordedSpan(t, func(ctx context.Context) {
		SpanEvent(ctx, "status_changed", "from", "ordered", "to", "ready", "dangling")
	})

	events := span.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "status_changed", events[0].Name)
	assert.Len(t, events[0].Attributes, 2)
}

func TestMarkSpanFailed(t *testing.T) {
	span := recordedSpan(t, func(ctx context.Context) {
		MarkSpanFailed(ctx, errors.New("upstream down"))
	})

	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "upstream down", span.Status().Description)
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Len(t, TraceIDFromContext(ctx), 32)
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		TagSession(ctx, "t", "u", "r")
		SpanEvent(ctx, "noop")
		MarkSpanFailed(ctx, errors.New("x"))
	})
}

func TestNewTelemetry_DisabledDoesNotExport(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.OtelConfig{Enabled: false}, config.AppConfig{})
	require.NoError(t, err)

	assert.False(t, tel.Exporting())
	assert.NoError(t, tel.Shutdown(context.Background()))

	var nilTel *Telemetry
	assert.False(t, nilTel.Exporting())
	assert.NoError(t, nilTel.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(0).Description(), "0.1")
	assert.Contains(t, samplerFor(2).Description(), "0.1")
	assert.Contains(t, samplerFor(0.5).Description(), "0.5")
}
