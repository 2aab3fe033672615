package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records pipeline metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCaptured records events accepted by the capture surface.
	RecordCaptured(ctx context.Context, count int64)

	// RecordDropped records events discarded before delivery, with the
	// drop reason ("invalid", "hook_drop", "hook_panic", "send_failed",
	// "shutdown").
	RecordDropped(ctx context.Context, count int64, reason string)

	// RecordDelivered records events accepted by the ingestion endpoint.
	RecordDelivered(ctx context.Context, count int64)

	// RecordBatchSend records one delivery attempt with its size, duration,
	// and error status.
	RecordBatchSend(ctx context.Context, batchSize int, duration time.Duration, err error)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	eventsCaptured  metric.Int64Counter
	eventsDropped   metric.Int64Counter
	eventsDelivered metric.Int64Counter
	batchesSent     metric.Int64Counter
	batchSize       metric.Int64Histogram
	sendDuration    metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("beacon")

	eventsCaptured, err := meter.Int64Counter("beacon.events.captured",
		metric.WithDescription("Number of events accepted by the capture surface"),
	)
	if err != nil {
		return nil, err
	}

	eventsDropped, err := meter.Int64Counter("beacon.events.dropped",
		metric.WithDescription("Number of events discarded before delivery"),
	)
	if err != nil {
		return nil, err
	}

	eventsDelivered, err := meter.Int64Counter("beacon.events.delivered",
		metric.WithDescription("Number of events delivered to the ingestion endpoint"),
	)
	if err != nil {
		return nil, err
	}

	batchesSent, err := meter.Int64Counter("beacon.batches.sent",
		metric.WithDescription("Number of batch delivery attempts"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("beacon.batch.size",
		metric.WithDescription("Number of events per delivery attempt"),
	)
	if err != nil {
		return nil, err
	}

	sendDuration, err := meter.Float64Histogram("beacon.send.duration",
		metric.WithDescription("Batch delivery duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		eventsCaptured:  eventsCaptured,
		eventsDropped:   eventsDropped,
		eventsDelivered: eventsDelivered,
		batchesSent:     batchesSent,
		batchSize:       batchSize,
		sendDuration:    sendDuration,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordCaptured records accepted events.
func (m *otelMetrics) RecordCaptured(ctx context.Context, count int64) {
	m.eventsCaptured.Add(ctx, count)
}

// RecordDropped records discarded events with the drop reason.
func (m *otelMetrics) RecordDropped(ctx context.Context, count int64, reason string) {
	m.eventsDropped.Add(ctx, count, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordDelivered records delivered events.
func (m *otelMetrics) RecordDelivered(ctx context.Context, count int64) {
	m.eventsDelivered.Add(ctx, count)
}

// RecordBatchSend records one delivery attempt.
func (m *otelMetrics) RecordBatchSend(ctx context.Context, batchSize int, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	attrs := []attribute.KeyValue{
		attribute.String("outcome", outcome),
	}

	m.batchesSent.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.batchSize.Record(ctx, int64(batchSize), metric.WithAttributes(attrs...))
	m.sendDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}
