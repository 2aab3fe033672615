package beacon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers finished batches to the ingestion endpoint. Send is
// called only from the worker goroutine; implementations may block for
// the duration of one delivery without stalling capture callers.
type Sender interface {
	// Send delivers the batch. A nil return means every event in the
	// batch was accepted; any error means the whole batch was dropped.
	// The context carries the shutdown deadline during the final drain
	// flush.
	Send(ctx context.Context, batch []Event) error
}

// capturePayload is the wire form for a single event (`/i/v0/e/`).
type capturePayload struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// batchPayload is the wire form for multiple events (`/batch/`).
type batchPayload struct {
	APIKey string       `json:"api_key"`
	Batch  []batchEvent `json:"batch"`
}

// batchEvent is a single event within a batch payload.
type batchEvent struct {
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// defaultSendTimeout bounds one delivery attempt when the caller does
// not supply an http.Client.
const defaultSendTimeout = 30 * time.Second

// HTTPSender posts batches to a Beacon ingestion host. One event goes
// to the single-capture endpoint, two or more to the batch endpoint.
type HTTPSender struct {
	apiKey string
	host   Host
	client *http.Client
}

// NewHTTPSender creates a sender for the given host. A nil client
// falls back to a dedicated http.Client with a 30s request timeout.
func NewHTTPSender(apiKey string, host Host, client *http.Client) *HTTPSender {
	if client == nil {
		client = &http.Client{Timeout: defaultSendTimeout}
	}
	return &HTTPSender{
		apiKey: apiKey,
		host:   host,
		client: client,
	}
}

// Send implements Sender. There are no retries: any error return means
// the batch is gone.
func (s *HTTPSender) Send(ctx context.Context, batch []Event) error {
	if len(batch) == 0 {
		return nil
	}

	var url string
	var payload any
	if len(batch) == 1 {
		url = s.host.CaptureURL()
		payload = capturePayload{
			APIKey:     s.apiKey,
			Event:      batch[0].Name,
			DistinctID: batch[0].DistinctID,
			Properties: batch[0].Properties,
			Timestamp:  wireTimestamp(batch[0].Timestamp),
		}
	} else {
		url = s.host.BatchURL()
		events := make([]batchEvent, len(batch))
		for i, evt := range batch {
			events[i] = batchEvent{
				Event:      evt.Name,
				DistinctID: evt.DistinctID,
				Properties: evt.Properties,
				Timestamp:  wireTimestamp(evt.Timestamp),
			}
		}
		payload = batchPayload{
			APIKey: s.apiKey,
			Batch:  events,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &SendError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &SendError{Err: err}
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &SendError{StatusCode: resp.StatusCode, Err: ErrUnauthorized}
	default:
		return &SendError{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
}

// wireTimestamp formats an event time for the wire. Zero times are
// omitted so the ingestion endpoint stamps arrival time instead.
func wireTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
