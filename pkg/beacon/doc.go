/*
Package beacon is the official Go SDK for Beacon product analytics.

# Overview

beacon captures analytics events without getting in your application's way.
Capture calls never block and never return errors: events are handed to a
single background worker that enriches them with library/OS metadata, runs
them through user-supplied before-send hooks, accumulates them into batches,
and delivers the batches to the Beacon ingestion API over HTTP. Shutdown
drains pending events within a configurable deadline.

The design goals, in order:
  - Instrumentation must never break the host application
  - Capture must be cheap enough to call from hot paths
  - Shutdown must be bounded: drain what you can, log what you drop

# Basic Usage

Initialize once, capture anywhere, close on exit:

	func main() {
	    guard, err := beacon.Init(beacon.NewConfig("bcn_your_api_key"))
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer guard.Close()

	    beacon.Capture(beacon.NewEvent("app_started", "user_123"))

	    beacon.Capture(beacon.NewEventBuilder().
	        Event("button_click").
	        DistinctID("user_123").
	        Property("button_id", "submit").
	        MustBuild())

	    beacon.Batch([]beacon.Event{
	        beacon.NewEvent("step_one", "user_123"),
	        beacon.NewEvent("step_two", "user_123"),
	    })
	}

Applications that prefer explicit handles over the process-wide client can
construct one directly:

	client, err := beacon.NewClient(beacon.NewConfig("bcn_your_api_key"))
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	client.Capture(beacon.NewEvent("job_finished", "worker_7"))

# Hooks

Hooks edit, filter, or sample events before delivery. They run in configured
order on the worker goroutine; the first hook that reports "drop" ends the
chain for that event:

	cfg := beacon.NewConfig("bcn_your_api_key")
	cfg.BeforeSend = []beacon.Hook{
	    beacon.HookFunc(func(e beacon.Event) (beacon.Event, bool) {
	        delete(e.Properties, "email") // scrub PII
	        return e, true
	    }),
	    beacon.NewSamplingHook(0.25), // keep 25% of what remains
	}

A panicking hook is logged and treated as a drop for that event only; the
worker keeps running.

# Shutdown

Close enqueues nothing new, drains what is already queued, flushes the final
batch, and returns within Config.ShutdownTimeout. On timeout the number of
undelivered events is logged. Close is idempotent. For an explicit barrier
without shutting down, Flush waits until everything captured before the call
has been delivered:

	if !client.Flush(5 * time.Second) {
	    log.Println("flush timed out")
	}

# Error Handling

Capture and Batch never fail. Construction and initialization do:

	_, err := beacon.NewClient(beacon.Config{})
	// errors.Is(err, beacon.ErrMissingAPIKey)

	var panicErr *beacon.HookPanicError // logged, never returned to callers
	var sendErr *beacon.SendError       // logged, never returned to callers

# Thread Safety

  - Client is safe for concurrent use; Capture/Batch may be called from any
    goroutine.
  - Events are owned by the pipeline once captured; do not mutate an event
    (or its properties map) after passing it to Capture or Batch.
  - Hooks run only on the worker goroutine and may carry unsynchronized
    state, but must not be invoked elsewhere concurrently.

# Subpackages

  - bridge: embeddable HTTP capture endpoints for host runtimes
  - config: YAML/JSON/environment loading of Config
  - observability: slog helpers, OpenTelemetry metrics and spans
*/
package beacon
