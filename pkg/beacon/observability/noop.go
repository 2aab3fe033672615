package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Compile-time interface checks.
var (
	_ MetricsRecorder = NoopMetrics{}
	_ SpanManager     = NoopSpanManager{}
)

// noopSpan is a shared no-op span instance.
var noopSpan = noop.Span{}

// NoopMetrics is a MetricsRecorder that does nothing.
// Used when metrics collection is disabled.
type NoopMetrics struct{}

func (NoopMetrics) RecordCaptured(ctx context.Context, count int64)               {}
func (NoopMetrics) RecordDropped(ctx context.Context, count int64, reason string) {}
func (NoopMetrics) RecordDelivered(ctx context.Context, count int64)              {}
func (NoopMetrics) RecordBatchSend(ctx context.Context, batchSize int, duration time.Duration, err error) {
}

// NoopSpanManager is a SpanManager that does nothing.
// Used when tracing is disabled.
type NoopSpanManager struct{}

func (NoopSpanManager) StartSendSpan(ctx context.Context, endpoint string, batchSize int) (context.Context, trace.Span) {
	return ctx, noopSpan
}

func (NoopSpanManager) EndSpanWithError(span trace.Span, err error) {}

func (NoopSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {}
