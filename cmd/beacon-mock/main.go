// Beacon-mock is a drop-in stand-in for the Beacon ingestion API in local
// development and integration tests. It accepts the SDK's wire protocol
// exactly (same capture and batch payload shapes), stores everything in
// memory, and exposes query endpoints so tests can verify events arrived.
//
// Endpoints:
//   - POST /i/v0/e/  single-event capture, SDK wire format
//   - POST /batch/   batched capture, SDK wire format
//   - GET  /status   operational counters plus stored counts
//   - GET  /events   query stored events by name or distinct_id
//   - GET  /healthz  liveness probe
//   - GET  /metrics  Prometheus request/event counters
//
// When --api-key is set, capture endpoints reject other keys with 401 so SDK
// auth diagnostics can be exercised; without it any key is accepted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/beaconhq/beacon-go/pkg/beacon/observability"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beaconmock_requests_total",
			Help: "Capture requests received, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
	eventsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beaconmock_events_stored_total",
			Help: "Events accepted into the in-memory store",
		},
	)
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		addr    string
		apiKey  string
		verbose bool
	)

	flagSet := pflag.NewFlagSet("beacon-mock", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", ":8080", "listen address")
	flagSet.StringVar(&apiKey, "api-key", "", "required API key; empty accepts any key")
	flagSet.BoolVar(&verbose, "verbose", false, "debug logging, including per-request lines")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mock := newMockServer(apiKey, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if verbose {
		router.Use(requestLogger(logger))
	}
	mock.registerRoutes(router)

	srv := &http.Server{Addr: addr, Handler: router}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	logger.Info("beacon mock running", "addr", addr, "auth_required", apiKey != "")

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request with its handling time.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := observability.TimedOperation()
		c.Next()
		logger.Debug("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", done(),
		)
	}
}

// captureRequest is the single-event wire shape posted to /i/v0/e/.
type captureRequest struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp"`
}

// batchRequest is the wire shape posted to /batch/.
type batchRequest struct {
	APIKey string       `json:"api_key"`
	Batch  []batchEntry `json:"batch"`
}

type batchEntry struct {
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp"`
}

// storedEvent is what /events returns per stored event.
type storedEvent struct {
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// mockServer stores captured events in memory for test assertions.
type mockServer struct {
	apiKey string
	logger *slog.Logger
	start  time.Time

	mu     sync.Mutex
	events []storedEvent

	captureRequests atomic.Uint64
	batchRequests   atomic.Uint64
	rejected        atomic.Uint64
}

func newMockServer(apiKey string, logger *slog.Logger) *mockServer {
	return &mockServer{
		apiKey: apiKey,
		logger: logger,
		start:  time.Now(),
	}
}

func (m *mockServer) registerRoutes(r gin.IRoutes) {
	r.POST("/i/v0/e/", m.handleCapture)
	r.POST("/batch/", m.handleBatch)
	r.GET("/status", m.handleStatus)
	r.GET("/events", m.handleEvents)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// authorized reports whether the presented key may capture. An unset
// --api-key accepts everything.
func (m *mockServer) authorized(key string) bool {
	return m.apiKey == "" || key == m.apiKey
}

func (m *mockServer) handleCapture(c *gin.Context) {
	m.captureRequests.Add(1)

	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestsTotal.WithLabelValues("capture", "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if !m.authorized(req.APIKey) {
		m.rejected.Add(1)
		requestsTotal.WithLabelValues("capture", "unauthorized").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}
	if req.Event == "" {
		requestsTotal.WithLabelValues("capture", "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "event required"})
		return
	}

	m.store(storedEvent{
		Event:      req.Event,
		DistinctID: req.DistinctID,
		Properties: req.Properties,
		Timestamp:  req.Timestamp,
	})

	requestsTotal.WithLabelValues("capture", "accepted").Inc()
	m.logger.Debug("event captured", "event_name", req.Event, "distinct_id", req.DistinctID)
	c.JSON(http.StatusOK, gin.H{"status": 1})
}

func (m *mockServer) handleBatch(c *gin.Context) {
	m.batchRequests.Add(1)

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestsTotal.WithLabelValues("batch", "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	if !m.authorized(req.APIKey) {
		m.rejected.Add(1)
		requestsTotal.WithLabelValues("batch", "unauthorized").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}

	for _, entry := range req.Batch {
		m.store(storedEvent{
			Event:      entry.Event,
			DistinctID: entry.DistinctID,
			Properties: entry.Properties,
			Timestamp:  entry.Timestamp,
		})
	}

	requestsTotal.WithLabelValues("batch", "accepted").Inc()
	m.logger.Debug("batch captured", "batch_size", len(req.Batch))
	c.JSON(http.StatusOK, gin.H{"status": 1})
}

func (m *mockServer) store(evt storedEvent) {
	evt.ReceivedAt = time.Now()

	m.mu.Lock()
	m.events = append(m.events, evt)
	m.mu.Unlock()

	eventsStored.Inc()
}

func (m *mockServer) handleStatus(c *gin.Context) {
	m.mu.Lock()
	stored := len(m.events)
	m.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":    time.Since(m.start).Seconds(),
		"stored_events":     stored,
		"capture_requests":  m.captureRequests.Load(),
		"batch_requests":    m.batchRequests.Load(),
		"rejected_requests": m.rejected.Load(),
	})
}

// handleEvents returns stored events, optionally filtered by ?name= and
// ?distinct_id=. An empty filter returns everything.
func (m *mockServer) handleEvents(c *gin.Context) {
	name := c.Query("name")
	distinctID := c.Query("distinct_id")

	// Copy the slice under lock, then filter the copy.
	m.mu.Lock()
	all := make([]storedEvent, len(m.events))
	copy(all, m.events)
	m.mu.Unlock()

	matched := make([]storedEvent, 0, len(all))
	for _, evt := range all {
		if name != "" && evt.Event != name {
			continue
		}
		if distinctID != "" && evt.DistinctID != distinctID {
			continue
		}
		matched = append(matched, evt)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": matched,
		"count":  len(matched),
	})
}
