package schedule

import (
	"context"
	"testing"

	"github.com/smith3v/tg-daily-companion/pkg/db"
	"github.com/smith3v/tg-daily-companion/pkg/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(r *Runner) *tracetest.SpanRecorder {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer(tracerName)
	r.tracer = tracer
	r.coordinator.tracer = tracer
	r.sweeper.tracer = tracer
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func spansNamed(spans []sdktrace.ReadOnlySpan, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, span := range spans {
		if span.Name() == name {
			out = append(out, span)
		}
	}
	return out
}

func TestTickRecordsSpans(t *testing.T) {
	store := newMemoryStore(db.Recipient{ChatID: 1, Lang: "tr"}, db.Recipient{ChatID: 2, Lang: "ru"})
	gateway := newFakeGateway()
	r := newTestRunner(t, store, gateway, at(1, 10, 30))
	recorder := recordSpans(r)

	require.True(t, r.Tick(context.Background()))

	spans := recorder.Ended()
	ticks := spansNamed(spans, "schedule.tick")
	require.Len(t, ticks, 1)
	tick := ticks[0]
	assert.NotEmpty(t, spanAttrs(tick)["tick_id"].AsString())

	broadcasts := map[string]sdktrace.ReadOnlySpan{}
	for _, span := range spansNamed(spans, "schedule.broadcast") {
		broadcasts[spanAttrs(span)["kind"].AsString()] = span
	}
	require.Contains(t, broadcasts, KindWords)
	require.Contains(t, broadcasts, string(db.KindApology))

	words := spanAttrs(broadcasts[KindWords])
	assert.Equal(t, int64(2), words["recipients"].AsInt64())
	assert.Equal(t, int64(2), words["delivered"].AsInt64())
	assert.Equal(t, tick.SpanContext().SpanID(), broadcasts[KindWords].Parent().SpanID())

	sweeps := spansNamed(spans, "schedule.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, tick.SpanContext().TraceID(), sweeps[0].SpanContext().TraceID())
}

func TestBroadcastSpanCountsForbidden(t *testing.T) {
	store := newMemoryStore(db.Recipient{ChatID: 1, Lang: "tr"}, db.Recipient{ChatID: 2, Lang: "tr"})
	gateway := newFakeGateway()
	gateway.setStatus(2, delivery.Forbidden)
	r := newTestRunner(t, store, gateway, at(1, 16, 0))
	recorder := recordSpans(r)

	_, err := r.coordinator.Broadcast(context.Background(), db.KindLove)
	require.NoError(t, err)

	broadcasts := spansNamed(recorder.Ended(), "schedule.broadcast")
	require.Len(t, broadcasts, 1)
	attrs := spanAttrs(broadcasts[0])
	assert.Equal(t, string(db.KindLove), attrs["kind"].AsString())
	assert.Equal(t, int64(1), attrs["delivered"].AsInt64())
	assert.Equal(t, int64(1), attrs["forbidden"].AsInt64())
}
