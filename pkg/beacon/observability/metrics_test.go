package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	// NewMetricsRecorder uses the global provider
	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	// Should not be a noop (since we set up a real provider)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordCaptured(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	// Create a fresh metrics instance using the test provider
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	m.RecordCaptured(ctx, 3)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "beacon.events.captured")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	require.NotEmpty(t, sum.DataPoints)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestRecordDropped(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records drop count with reason attribute", func(t *testing.T) {
		m.RecordDropped(ctx, 2, "hook_drop")

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.events.dropped")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		// Find the datapoint for our reason
		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "reason" && attr.Value.AsString() == "hook_drop" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(2))
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for reason=hook_drop")
	})

	t.Run("separates datapoints per reason", func(t *testing.T) {
		m.RecordDropped(ctx, 1, "send_failed")
		m.RecordDropped(ctx, 1, "shutdown")

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.events.dropped")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		reasons := map[string]bool{}
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "reason" {
					reasons[attr.Value.AsString()] = true
				}
			}
		}
		assert.True(t, reasons["send_failed"])
		assert.True(t, reasons["shutdown"])
	})
}

func TestRecordDelivered(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	m.RecordDelivered(ctx, 50)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "beacon.events.delivered")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	require.NotEmpty(t, sum.DataPoints)
	assert.Equal(t, int64(50), sum.DataPoints[0].Value)
}

func TestRecordBatchSend(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records success outcome", func(t *testing.T) {
		m.RecordBatchSend(ctx, 25, 30*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.batches.sent")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "outcome" && attr.Value.AsString() == "success" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for outcome=success")
	})

	t.Run("records failure outcome", func(t *testing.T) {
		m.RecordBatchSend(ctx, 10, 5*time.Millisecond, errors.New("send failed"))

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.batches.sent")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "outcome" && attr.Value.AsString() == "failure" {
					found = true
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for outcome=failure")
	})

	t.Run("records batch size histogram", func(t *testing.T) {
		m.RecordBatchSend(ctx, 42, 10*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.batch.size")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[int64])
		require.True(t, ok, "Expected Histogram[int64] type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records send duration", func(t *testing.T) {
		m.RecordBatchSend(ctx, 5, 20*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "beacon.send.duration")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})
}

func TestOtelMetrics_AllMethods(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()

	// Call all methods to ensure they work
	m.RecordCaptured(ctx, 1)
	m.RecordDropped(ctx, 1, "invalid")
	m.RecordDelivered(ctx, 1)
	m.RecordBatchSend(ctx, 1, 5*time.Millisecond, nil)
	m.RecordBatchSend(ctx, 1, 5*time.Millisecond, errors.New("test"))

	// Collect and verify all metrics exist
	rm := collectMetrics(t, reader)

	assert.NotNil(t, findMetric(rm, "beacon.events.captured"))
	assert.NotNil(t, findMetric(rm, "beacon.events.dropped"))
	assert.NotNil(t, findMetric(rm, "beacon.events.delivered"))
	assert.NotNil(t, findMetric(rm, "beacon.batches.sent"))
	assert.NotNil(t, findMetric(rm, "beacon.batch.size"))
	assert.NotNil(t, findMetric(rm, "beacon.send.duration"))
}

func TestNewOtelMetrics_Creation(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	// Verify all metric instruments were created
	assert.NotNil(t, m.eventsCaptured)
	assert.NotNil(t, m.eventsDropped)
	assert.NotNil(t, m.eventsDelivered)
	assert.NotNil(t, m.batchesSent)
	assert.NotNil(t, m.batchSize)
	assert.NotNil(t, m.sendDuration)

	// Use the reader to avoid unused warning
	_ = reader
}
