package benchmarks

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/beaconhq/beacon-go/pkg/beacon"
)

// nopSender discards batches so benchmarks measure pipeline overhead,
// not network time.
type nopSender struct{}

func (nopSender) Send(_ context.Context, _ []beacon.Event) error { return nil }

func newBenchClient(b *testing.B) *beacon.Client {
	b.Helper()

	cfg := beacon.NewConfig("bench-key")
	cfg.Sender = nopSender{}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := beacon.NewClient(cfg)
	if err != nil {
		b.Fatal(err)
	}
	return client
}

// BenchmarkCapture measures the producer-side cost of a single capture.
func BenchmarkCapture(b *testing.B) {
	client := newBenchClient(b)
	evt := beacon.NewEvent("bench_event", "bench-user")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.Capture(evt)
	}
	b.StopTimer()
	client.Close()
}

// BenchmarkCapture_Parallel measures capture under producer contention.
func BenchmarkCapture_Parallel(b *testing.B) {
	client := newBenchClient(b)
	evt := beacon.NewEvent("bench_event", "bench-user")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			client.Capture(evt)
		}
	})
	b.StopTimer()
	client.Close()
}

// BenchmarkCapture_WithHooks measures capture with a three-hook chain
// (the hooks run on the worker, so this shows end-to-end pipeline cost).
func BenchmarkCapture_WithHooks(b *testing.B) {
	cfg := beacon.NewConfig("bench-key")
	cfg.Sender = nopSender{}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.BeforeSend = []beacon.Hook{
		beacon.HookFunc(func(evt beacon.Event) (beacon.Event, bool) {
			evt.SetProperty("stage", "one")
			return evt, true
		}),
		beacon.HookFunc(func(evt beacon.Event) (beacon.Event, bool) {
			delete(evt.Properties, "secret")
			return evt, true
		}),
		beacon.NewSamplingHook(0.5),
	}

	client, err := beacon.NewClient(cfg)
	if err != nil {
		b.Fatal(err)
	}
	evt := beacon.NewEvent("bench_event", "bench-user")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.Capture(evt)
	}
	b.StopTimer()
	client.Close()
}

// BenchmarkBatch_10 measures enqueuing 10-event groups.
func BenchmarkBatch_10(b *testing.B) {
	benchBatch(b, 10)
}

// BenchmarkBatch_100 measures enqueuing 100-event groups.
func BenchmarkBatch_100(b *testing.B) {
	benchBatch(b, 100)
}

func benchBatch(b *testing.B, size int) {
	client := newBenchClient(b)

	events := make([]beacon.Event, size)
	for i := range events {
		events[i] = beacon.NewEvent("bench_event", "bench-user")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		client.Batch(events)
	}
	b.StopTimer()
	client.Close()
}

// BenchmarkEventBuilder measures fluent event construction.
func BenchmarkEventBuilder(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = beacon.NewEventBuilder().
			Event("bench_event").
			DistinctID("bench-user").
			Property("index", i).
			MustBuild()
	}
}

// BenchmarkNewAnonymousEvent measures UUIDv7 distinct ID generation.
func BenchmarkNewAnonymousEvent(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = beacon.NewAnonymousEvent("bench_event")
	}
}
