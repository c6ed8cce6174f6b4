package sinks

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
)

// Event is a delivered lobby payload as seen downstream.
type Event struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Op              string          `json:"op"`
	Endpoint        string          `json:"endpoint,omitempty"`
	StatusCode      int             `json:"status_code"`
	Payload         json.RawMessage `json:"payload"`
	PayloadEncoding string          `json:"payload_encoding"`
	ReceivedAt      time.Time       `json:"received_at"`
}

// NewEvent wraps a snapshot for the given source application. Only 200
// responses ever reach the status callback, so StatusCode is always 200.
func NewEvent(source string, snap domain.Snapshot) Event {
	received := snap.ReceivedAt
	if received.IsZero() {
		received = time.Now().UTC()
	}
	payload, enc := domain.EncodePayload(snap.Payload)
	return Event{
		ID:              snap.ID,
		Source:          source,
		Op:              snap.Op,
		Endpoint:        snap.Endpoint,
		StatusCode:      http.StatusOK,
		Payload:         payload,
		PayloadEncoding: enc,
		ReceivedAt:      received,
	}
}

// Attributes are the routing keys every broker message carries.
func (e Event) Attributes() map[string]string {
	attrs := map[string]string{
		"op":               e.Op,
		"status_code":      strconv.Itoa(e.StatusCode),
		"payload_encoding": e.PayloadEncoding,
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	if e.Endpoint != "" {
		attrs["endpoint"] = e.Endpoint
	}
	return attrs
}
