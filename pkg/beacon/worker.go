package beacon

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/beaconhq/beacon-go/pkg/beacon/observability"
)

// Drop reasons reported in logs and metrics.
const (
	dropReasonInvalid    = "invalid"
	dropReasonHookDrop   = "hook_drop"
	dropReasonHookPanic  = "hook_panic"
	dropReasonSendFailed = "send_failed"
	dropReasonShutdown   = "shutdown"
)

// worker is the single consumer of the queue. It runs each event
// through enrichment and the hook chain, accumulates a batch, and
// flushes it at the size threshold, on interval ticks, on flush
// markers, and once more at drain exit. All of its state is owned by
// the worker goroutine; only done is visible outside.
type worker struct {
	queue         *queue
	sender        Sender
	hooks         []Hook
	host          Host
	batchSize     int
	flushInterval time.Duration

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	stats   *counters

	batch []Event

	// done is closed when the worker goroutine stops.
	done chan struct{}
}

func newWorker(q *queue, sender Sender, cfg Config, logger *slog.Logger, metrics observability.MetricsRecorder, spans observability.SpanManager, stats *counters) *worker {
	return &worker{
		queue:         q,
		sender:        sender,
		hooks:         cfg.BeforeSend,
		host:          cfg.Host,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		logger:        observability.ComponentLogger(logger, "worker"),
		metrics:       metrics,
		spans:         spans,
		stats:         stats,
		done:          make(chan struct{}),
	}
}

// run is the worker goroutine body. It processes entries until the
// queue closes, then drains the backlog up to the shutdown deadline.
func (w *worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	ctx := context.Background()

	// Running: handle entries as they arrive; flush on interval ticks
	// while the queue is idle.
	for {
		entry, ok, closed := w.queue.pop()
		if closed {
			w.drain(entry, ok)
			return
		}
		if !ok {
			select {
			case <-w.queue.wake:
			case <-ticker.C:
				w.flushBatch(ctx)
			}
			continue
		}
		w.handle(ctx, entry)
	}
}

// drain processes the backlog present at close until the shutdown
// deadline, drops anything left past it, and delivers the final batch.
// head/hasHead carry the entry popped in the same step that observed
// the close.
func (w *worker) drain(head queueEntry, hasHead bool) {
	deadline := w.queue.drainDeadline()
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	entry, ok := head, hasHead
	for {
		if !ok {
			if entry, ok, _ = w.queue.pop(); !ok {
				break
			}
		}
		if !time.Now().Before(deadline) {
			w.discardBacklog(entry)
			break
		}
		w.handle(ctx, entry)
		ok = false
	}

	w.flushBatch(ctx)
}

// handle runs one queue entry through the pipeline.
func (w *worker) handle(ctx context.Context, entry queueEntry) {
	if entry.isFlush() {
		w.flushBatch(ctx)
		close(entry.flush)
		return
	}

	evt := entry.event
	if evt.Name == "" {
		w.drop(evt, dropReasonInvalid)
		return
	}

	enrichEvent(&evt)

	evt, kept := w.applyHooks(evt)
	if !kept {
		return
	}

	w.batch = append(w.batch, evt)
	if len(w.batch) >= w.batchSize {
		w.flushBatch(ctx)
	}
}

// applyHooks runs the hook chain in configured order, each hook
// receiving the previous hook's output. The first drop short-circuits
// the chain; a panicking hook is recovered and treated as a drop for
// this event only.
func (w *worker) applyHooks(evt Event) (Event, bool) {
	for i, hook := range w.hooks {
		next, kept, panicErr := w.applyHook(i, hook, evt)
		if panicErr != nil {
			observability.LogHookPanic(w.logger, panicErr.HookIndex, panicErr.EventName, panicErr.Value, panicErr.Stack)
			w.drop(evt, dropReasonHookPanic)
			return Event{}, false
		}
		if !kept {
			w.drop(evt, dropReasonHookDrop)
			return Event{}, false
		}
		evt = next
	}
	return evt, true
}

// applyHook invokes a single hook with panic recovery.
// Returns the transformed event and any panic (wrapped and typed).
func (w *worker) applyHook(index int, hook Hook, evt Event) (next Event, kept bool, panicErr *HookPanicError) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			panicErr = &HookPanicError{
				HookIndex: index,
				EventName: evt.Name,
				Value:     r,
				Stack:     string(debug.Stack()),
			}
		}
	}()

	next, kept = hook.Apply(evt)
	return next, kept, nil
}

// flushBatch hands the accumulated batch to the sender. A failed send
// drops the whole batch; there are no retries.
func (w *worker) flushBatch(ctx context.Context) {
	if len(w.batch) == 0 {
		return
	}
	batch := w.batch
	w.batch = nil

	endpoint := w.host.BatchURL()
	if len(batch) == 1 {
		endpoint = w.host.CaptureURL()
	}

	spanCtx, span := w.spans.StartSendSpan(ctx, endpoint, len(batch))

	start := time.Now()
	err := w.sender.Send(spanCtx, batch)
	duration := time.Since(start)

	w.metrics.RecordBatchSend(spanCtx, len(batch), duration, err)
	w.spans.EndSpanWithError(span, err)

	n := int64(len(batch))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			observability.LogAuthFailure(w.logger, len(batch))
		} else {
			observability.LogSendFailure(w.logger, len(batch), err)
		}
		w.stats.dropped.Add(n)
		w.stats.pending.Add(-n)
		w.metrics.RecordDropped(spanCtx, n, dropReasonSendFailed)
		return
	}

	w.stats.delivered.Add(n)
	w.stats.pending.Add(-n)
	w.metrics.RecordDelivered(spanCtx, n)
	observability.LogBatchDelivered(w.logger, len(batch), float64(duration.Milliseconds()))
}

// drop records one discarded event.
func (w *worker) drop(evt Event, reason string) {
	w.stats.dropped.Add(1)
	w.stats.pending.Add(-1)
	w.metrics.RecordDropped(context.Background(), 1, reason)
	observability.LogEventDropped(w.logger, evt.Name, reason)
}

// discardBacklog drops every remaining entry once the shutdown
// deadline has passed, head included, and logs the total.
func (w *worker) discardBacklog(head queueEntry) {
	var dropped int64
	entry, ok := head, true
	for ok {
		if !entry.isFlush() {
			dropped++
			w.stats.dropped.Add(1)
			w.stats.pending.Add(-1)
		}
		entry, ok, _ = w.queue.pop()
	}
	if dropped > 0 {
		w.metrics.RecordDropped(context.Background(), dropped, dropReasonShutdown)
		observability.LogPartialDrain(w.logger, dropped)
	}
}
