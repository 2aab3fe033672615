package beacon

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/beaconhq/beacon-go/pkg/beacon/observability"
)

// globalClient is the process-wide pipeline registered by Init.
var globalClient atomic.Pointer[Client]

// Guard owns the lifetime of the pipeline started by Init. Hold it for
// the duration of the application and call Close on the way out;
// Close triggers the graceful shutdown drain.
type Guard struct {
	client *Client
	closed atomic.Bool
}

// Init starts the process-wide pipeline and registers it for the
// package-level Capture, Batch, and Flush functions.
//
// An empty APIKey puts the SDK in disabled mode: Init logs a warning
// and returns an inert guard, and captures become silent no-ops.
// Instrumented applications run fine without a key.
//
// Init returns ErrAlreadyInitialized while a previous registration is
// still live; close its guard first to re-initialize.
func Init(cfg Config) (*Guard, error) {
	if cfg.APIKey == "" {
		observability.LoggerOrDefault(cfg.Logger).Warn("beacon disabled: no API key provided")
		return &Guard{}, nil
	}

	if globalClient.Load() != nil {
		return nil, ErrAlreadyInitialized
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if !globalClient.CompareAndSwap(nil, client) {
		// Lost the registration race to a concurrent Init.
		_ = client.Close()
		return nil, ErrAlreadyInitialized
	}

	return &Guard{client: client}, nil
}

// MustInit is Init that panics on error.
func MustInit(cfg Config) *Guard {
	guard, err := Init(cfg)
	if err != nil {
		panic(err)
	}
	return guard
}

// Close shuts the pipeline down (blocking up to ShutdownTimeout for
// the drain) and clears the global registration so a later Init can
// start a fresh pipeline. Second and later calls return immediately;
// the guard of a disabled pipeline closes without effect.
func (g *Guard) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}
	if g.client == nil {
		return nil // Disabled mode
	}

	err := g.client.Close()
	globalClient.CompareAndSwap(g.client, nil)
	return err
}

// Capture records one event on the pipeline registered by Init.
// Before Init and after the guard closes it is a logged no-op.
func Capture(evt Event) {
	client := globalClient.Load()
	if client == nil {
		slog.Debug("beacon capture ignored: not initialized",
			slog.String("event_name", evt.Name),
		)
		return
	}
	client.Capture(evt)
}

// Batch records events on the pipeline registered by Init.
// Before Init and after the guard closes it is a logged no-op.
func Batch(events []Event) {
	client := globalClient.Load()
	if client == nil {
		slog.Debug("beacon batch ignored: not initialized",
			slog.Int("batch_size", len(events)),
		)
		return
	}
	client.Batch(events)
}

// Flush waits up to timeout for the registered pipeline to process
// everything enqueued before the call. Returns false when the SDK is
// not initialized.
func Flush(timeout time.Duration) bool {
	client := globalClient.Load()
	if client == nil {
		slog.Debug("beacon flush ignored: not initialized")
		return false
	}
	return client.Flush(timeout)
}
