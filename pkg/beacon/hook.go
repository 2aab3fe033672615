package beacon

import (
	"math/rand/v2"
)

// Hook inspects an event before delivery and decides its fate.
//
// Apply returns the (possibly modified) event and true to pass it along, or
// false to drop it and stop the chain. Hooks run strictly in the order they
// appear in Config.BeforeSend, each receiving the previous hook's output,
// after enrichment has run.
//
// Hooks execute only on the worker goroutine, so a hook may carry
// unsynchronized internal state (counters, RNGs) as long as nothing else
// touches it once the client is built. A hook that panics is logged and
// treated as if it had dropped the event; it cannot kill the worker.
type Hook interface {
	Apply(event Event) (Event, bool)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(event Event) (Event, bool)

// Apply implements Hook.
func (f HookFunc) Apply(event Event) (Event, bool) {
	return f(event)
}

// SamplingHook keeps a random fraction of events and drops the rest.
// Rates at or below 0 drop everything; rates at or above 1 keep everything.
type SamplingHook struct {
	rate float64
	rng  *rand.Rand
}

// NewSamplingHook creates a sampling hook with the given keep rate.
// The hook owns its RNG and is not safe for use outside the worker.
func NewSamplingHook(rate float64) *SamplingHook {
	return &SamplingHook{
		rate: rate,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Apply implements Hook.
func (h *SamplingHook) Apply(event Event) (Event, bool) {
	if h.rate >= 1 {
		return event, true
	}
	if h.rate <= 0 {
		return event, false
	}
	return event, h.rng.Float64() < h.rate
}
