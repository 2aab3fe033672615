// Package observability provides the cross-cutting instrumentation for the
// beacon SDK: structured logging, metrics, and delivery tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled. The
// SDK stays silent unless the host application wires a provider.
package observability

import (
	"log/slog"
	"time"
)

// LoggerOrDefault returns the given logger, or slog.Default() when nil.
// Components use it to normalize optional Config loggers once at
// construction time.
func LoggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// ComponentLogger scopes a logger to one pipeline component.
// Returns a new logger carrying a component field.
//
// Example:
//
//	workerLog := ComponentLogger(logger, "worker")
//	workerLog.Info("draining") // includes component=worker
func ComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	return LoggerOrDefault(logger).With(slog.String("component", component))
}

// LogEventDropped logs a single event discarded by the pipeline.
func LogEventDropped(logger *slog.Logger, eventName, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("event dropped",
		slog.String("event_name", eventName),
		slog.String("reason", reason),
	)
}

// LogHookPanic logs a recovered panic from a before-send hook.
func LogHookPanic(logger *slog.Logger, hookIndex int, eventName string, value any, stack string) {
	if logger == nil {
		return
	}
	logger.Error("hook panicked, event dropped",
		slog.Int("hook_index", hookIndex),
		slog.String("event_name", eventName),
		slog.Any("panic_value", value),
		slog.String("stack", stack),
	)
}

// LogBatchDelivered logs a successful batch delivery.
func LogBatchDelivered(logger *slog.Logger, batchSize int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("batch delivered",
		slog.Int("batch_size", batchSize),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSendFailure logs a failed batch delivery. The batch is dropped.
func LogSendFailure(logger *slog.Logger, batchSize int, err error) {
	if logger == nil {
		return
	}
	logger.Error("batch send failed, events dropped",
		slog.Int("batch_size", batchSize),
		slog.String("error", err.Error()),
	)
}

// LogAuthFailure logs an API key rejection from the ingestion endpoint.
func LogAuthFailure(logger *slog.Logger, batchSize int) {
	if logger == nil {
		return
	}
	logger.Error("authentication failed: invalid API key",
		slog.Int("batch_size", batchSize),
	)
}

// LogPartialDrain logs events abandoned because the shutdown deadline
// elapsed before the queue emptied.
func LogPartialDrain(logger *slog.Logger, dropped int64) {
	if logger == nil {
		return
	}
	logger.Warn("shutdown deadline reached, unprocessed events dropped",
		slog.Int64("dropped", dropped),
	)
}

// LogShutdownTimeout logs a Close call that returned before the worker
// finished draining.
func LogShutdownTimeout(logger *slog.Logger, timeout time.Duration, undelivered int64) {
	if logger == nil {
		return
	}
	logger.Warn("shutdown timed out, some events may be lost",
		slog.Duration("timeout", timeout),
		slog.Int64("undelivered", undelivered),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
