// Package bridge embeds beacon capture endpoints into a host application.
//
// Host runtimes that cannot link the SDK directly (webviews, embedded
// scripting layers, sidecar processes) post events over local HTTP instead.
// The bridge validates the payload, resolves the actor identity, stamps the
// bridge session, and hands the event to a Capturer. It never talks to the
// network itself.
//
// Routes can be mounted on any gin router or group:
//
//	b := bridge.New(client, bridge.WithDistinctID("user-42"))
//	b.RegisterRoutes(router.Group("/telemetry"))
package bridge

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/beaconhq/beacon-go/pkg/beacon"
	"github.com/beaconhq/beacon-go/pkg/beacon/observability"
)

// sessionProperty is or-inserted into every bridged event, so all events from
// one bridge instance correlate. An explicit caller value wins.
const sessionProperty = "$session_id"

// Capturer is the subset of the beacon client the bridge needs.
// *beacon.Client satisfies it.
type Capturer interface {
	Capture(evt beacon.Event)
	Batch(events []beacon.Event)
}

// Bridge translates HTTP capture requests into beacon events.
//
// Identity is resolved per bridge: a configured distinct ID attributes all
// events to that actor; without one the bridge runs anonymous and generates
// a fresh UUIDv7 distinct ID per event. The session ID is a UUIDv4 generated
// when the bridge is created and lives as long as the bridge does.
type Bridge struct {
	capturer   Capturer
	distinctID string
	sessionID  string
	logger     *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDistinctID attributes all bridged events to the given actor instead of
// generating anonymous IDs.
func WithDistinctID(id string) Option {
	return func(b *Bridge) {
		b.distinctID = id
	}
}

// WithLogger sets the logger for bridge diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// New creates a bridge that forwards validated events to capturer.
func New(capturer Capturer, opts ...Option) *Bridge {
	b := &Bridge{
		capturer:  capturer,
		sessionID: uuid.New().String(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = observability.ComponentLogger(b.logger, "bridge")
	return b
}

// captureRequest is the wire shape accepted by /capture and /batch entries.
type captureRequest struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
}

// sessionResponse describes the bridge identity to the host runtime.
type sessionResponse struct {
	SessionID  string `json:"session_id"`
	DistinctID string `json:"distinct_id,omitempty"`
	Anonymous  bool   `json:"anonymous"`
}

// RegisterRoutes mounts the bridge endpoints.
//
// POST /capture  {event, properties?}        -> 202
// POST /batch    [{event, properties?}, ...] -> 202
// GET  /session                              -> {session_id, distinct_id?, anonymous}
//
// Capture replies are fire-and-forget: 202 acknowledges the enqueue, not
// delivery.
func (b *Bridge) RegisterRoutes(r gin.IRoutes) {
	r.POST("/capture", func(c *gin.Context) {
		var req captureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if req.Event == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event required"})
			return
		}

		b.capturer.Capture(b.newEvent(req))
		b.logger.Debug("event bridged", "event_name", req.Event)
		c.JSON(http.StatusAccepted, gin.H{"accepted": 1})
	})

	r.POST("/batch", func(c *gin.Context) {
		var reqs []captureRequest
		if err := c.ShouldBindJSON(&reqs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		for _, req := range reqs {
			if req.Event == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "event required"})
				return
			}
		}

		events := make([]beacon.Event, len(reqs))
		for i, req := range reqs {
			events[i] = b.newEvent(req)
		}

		b.capturer.Batch(events)
		b.logger.Debug("batch bridged", "batch_size", len(events))
		c.JSON(http.StatusAccepted, gin.H{"accepted": len(events)})
	})

	r.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionResponse{
			SessionID:  b.sessionID,
			DistinctID: b.distinctID,
			Anonymous:  b.distinctID == "",
		})
	})
}

// newEvent builds the beacon event for one request: resolve identity, copy
// properties, stamp the session.
func (b *Bridge) newEvent(req captureRequest) beacon.Event {
	var evt beacon.Event
	if b.distinctID != "" {
		evt = beacon.NewEvent(req.Event, b.distinctID)
	} else {
		evt = beacon.NewAnonymousEvent(req.Event)
	}

	for k, v := range req.Properties {
		evt.SetProperty(k, v)
	}
	if _, ok := evt.Properties[sessionProperty]; !ok {
		evt.SetProperty(sessionProperty, b.sessionID)
	}
	return evt
}
