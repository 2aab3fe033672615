package beacon

import (
	"errors"
	"fmt"
)

// Sentinel errors for construction and initialization.
var (
	// ErrMissingAPIKey indicates NewClient was called without an API key.
	ErrMissingAPIKey = errors.New("api key is required")

	// ErrEmptyEventName indicates EventBuilder.Build was called without an
	// event name.
	ErrEmptyEventName = errors.New("event name is required")

	// ErrAlreadyInitialized indicates Init was called while a global client
	// is still registered.
	ErrAlreadyInitialized = errors.New("beacon already initialized")
)

// Sentinel errors for delivery.
var (
	// ErrUnauthorized indicates the ingestion endpoint rejected the API key
	// (HTTP 401).
	ErrUnauthorized = errors.New("invalid api key")
)

// SendError wraps a failed batch delivery.
type SendError struct {
	// StatusCode is the HTTP status returned by the ingestion endpoint,
	// or 0 when the request never completed.
	StatusCode int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("send failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("send failed: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SendError) Unwrap() error {
	return e.Err
}

// HookPanicError captures panic information from a before-send hook.
// It includes the stack trace for debugging. Hook panics are logged and
// treated as a drop decision; they are never returned to capture callers.
type HookPanicError struct {
	// HookIndex is the position of the hook in Config.BeforeSend.
	HookIndex int
	// EventName is the name of the event being processed.
	EventName string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *HookPanicError) Error() string {
	return fmt.Sprintf("hook %d panicked on event %q: %v", e.HookIndex, e.EventName, e.Value)
}
