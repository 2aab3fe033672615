package beacon

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beaconhq/beacon-go/pkg/beacon/observability"
)

// Host selects the ingestion endpoint events are delivered to. Use
// HostUS, HostEU, or CustomHost. The zero value behaves like HostUS.
type Host struct {
	baseURL string
}

// Built-in ingestion hosts.
var (
	// HostUS is the US ingestion endpoint.
	HostUS = Host{baseURL: "https://us.i.beacon.dev"}

	// HostEU is the EU ingestion endpoint.
	HostEU = Host{baseURL: "https://eu.i.beacon.dev"}
)

// CustomHost points delivery at a self-hosted or test endpoint.
// Trailing slashes are trimmed.
func CustomHost(url string) Host {
	return Host{baseURL: strings.TrimRight(url, "/")}
}

// BaseURL returns the host's base URL.
func (h Host) BaseURL() string {
	if h.baseURL == "" {
		return HostUS.baseURL
	}
	return h.baseURL
}

// CaptureURL returns the single-event ingestion URL.
func (h Host) CaptureURL() string {
	return h.BaseURL() + "/i/v0/e/"
}

// BatchURL returns the batch ingestion URL.
func (h Host) BatchURL() string {
	return h.BaseURL() + "/batch/"
}

// Config configures a Client. The zero value is not usable on its
// own (APIKey is required); start from NewConfig or DefaultConfig.
type Config struct {
	// APIKey authenticates with the ingestion endpoint. Required.
	APIKey string

	// Host selects the ingestion endpoint.
	// Default: HostUS
	Host Host

	// BeforeSend hooks run in order on each event after enrichment and
	// before batching. Hooks are invoked only by the worker goroutine;
	// stateful hooks must be handed over to the client and not used
	// elsewhere afterwards.
	BeforeSend []Hook

	// ShutdownTimeout bounds how long Close waits for the worker to
	// drain. Zero means Close does not wait at all; queued events are
	// dropped and counted. NewConfig and DefaultConfig set 2s.
	ShutdownTimeout time.Duration

	// BatchSize is the number of events that triggers a flush.
	// Default: 50
	BatchSize int

	// FlushInterval is how often a non-empty batch is flushed even if
	// the size threshold was never reached.
	// Default: 5s
	FlushInterval time.Duration

	// HTTPClient overrides the delivery HTTP client.
	// Default: a dedicated client with a 30s request timeout.
	HTTPClient *http.Client

	// Logger receives pipeline diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics records pipeline counters.
	// Default: observability.NoopMetrics
	Metrics observability.MetricsRecorder

	// Spans traces batch deliveries.
	// Default: observability.NoopSpanManager
	Spans observability.SpanManager

	// Sender replaces HTTP delivery entirely. When set, Host and
	// HTTPClient are ignored. Intended for tests and alternative
	// transports.
	Sender Sender
}

// DefaultConfig provides reasonable defaults.
var DefaultConfig = Config{
	Host:            HostUS,
	ShutdownTimeout: 2 * time.Second,
	BatchSize:       50,
	FlushInterval:   5 * time.Second,
}

// NewConfig returns a config with the given API key and defaults for
// everything else.
func NewConfig(apiKey string) Config {
	cfg := DefaultConfig
	cfg.APIKey = apiKey
	return cfg
}

// counters tracks pipeline totals. Capture callers and the worker
// update them concurrently.
type counters struct {
	enqueued  atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	pending   atomic.Int64
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	// Enqueued counts events admitted to the queue.
	Enqueued int64

	// Delivered counts events accepted by the ingestion endpoint.
	Delivered int64

	// Dropped counts events discarded for any reason: invalid name,
	// hook decision, hook panic, failed send, shutdown deadline.
	Dropped int64

	// Pending counts events admitted but not yet delivered or dropped.
	Pending int64
}

// Client is an asynchronous capture pipeline. Capture and Batch
// enqueue and return immediately; a single background worker enriches
// events, runs the hook chain, batches, and delivers. A Client must be
// created with NewClient and released with Close; a closed client
// cannot be restarted.
type Client struct {
	cfg     Config
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	queue  *queue
	worker *worker
	stats  *counters

	closed atomic.Bool
}

// NewClient validates the configuration, starts the background worker,
// and returns a running client. It returns ErrMissingAPIKey when the
// API key is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig.FlushInterval
	}

	logger := observability.LoggerOrDefault(cfg.Logger)
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	spans := cfg.Spans
	if spans == nil {
		spans = observability.NoopSpanManager{}
	}
	sender := cfg.Sender
	if sender == nil {
		sender = NewHTTPSender(cfg.APIKey, cfg.Host, cfg.HTTPClient)
	}

	stats := &counters{}
	q := newQueue()
	w := newWorker(q, sender, cfg, logger, metrics, spans, stats)

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		queue:   q,
		worker:  w,
		stats:   stats,
	}

	go w.run()
	return c, nil
}

// Capture enqueues one event for asynchronous delivery. It never
// blocks and never returns an error; after Close it is a logged no-op.
// A zero Timestamp is stamped with the capture time.
func (c *Client) Capture(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if !c.queue.enqueue(evt) {
		c.logger.Warn("capture after close, event dropped",
			slog.String("event_name", evt.Name),
		)
		return
	}
	c.stats.enqueued.Add(1)
	c.stats.pending.Add(1)
	c.metrics.RecordCaptured(context.Background(), 1)
}

// Batch enqueues events contiguously, so they are never interleaved
// with other producers' events. Like Capture it never blocks; after
// Close it is a logged no-op. Zero Timestamps are stamped with the
// capture time.
func (c *Client) Batch(events []Event) {
	if len(events) == 0 {
		return
	}
	now := time.Now().UTC()
	for i := range events {
		if events[i].Timestamp.IsZero() {
			events[i].Timestamp = now
		}
	}
	if !c.queue.enqueueAll(events) {
		c.logger.Warn("batch after close, events dropped",
			slog.Int("batch_size", len(events)),
		)
		return
	}
	n := int64(len(events))
	c.stats.enqueued.Add(n)
	c.stats.pending.Add(n)
	c.metrics.RecordCaptured(context.Background(), n)
}

// Flush blocks until every event enqueued before the call has been
// handed to the sender, including delivery of the batch in progress,
// or until timeout elapses. Returns true on completion, false on
// timeout or when the client is already closed.
func (c *Client) Flush(timeout time.Duration) bool {
	ack := make(chan struct{})
	if !c.queue.pushFlush(ack) {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ack:
		return true
	case <-c.worker.done:
		// The worker may have acked the marker just before stopping.
		select {
		case <-ack:
			return true
		default:
			return false
		}
	case <-timer.C:
		return false
	}
}

// Close shuts the pipeline down: the queue stops admitting events, the
// worker drains what is already queued, and the call returns once the
// worker stops or ShutdownTimeout elapses, whichever happens first. On
// timeout the undelivered-event count is logged and the worker keeps
// honoring the same deadline on its own. Second and later calls return
// immediately.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	timeout := c.cfg.ShutdownTimeout
	c.queue.close(time.Now().Add(timeout))

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.worker.done:
		return nil
	case <-timer.C:
	}

	// The worker may have stopped right at the deadline.
	select {
	case <-c.worker.done:
		return nil
	default:
	}

	observability.LogShutdownTimeout(c.logger, timeout, c.stats.pending.Load())
	return nil
}

// Stats returns a snapshot of pipeline counters.
func (c *Client) Stats() Stats {
	return Stats{
		Enqueued:  c.stats.enqueued.Load(),
		Delivered: c.stats.delivered.Load(),
		Dropped:   c.stats.dropped.Load(),
		Pending:   c.stats.pending.Load(),
	}
}
