package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload encodings recorded next to a stored or relayed body.
const (
	EncodingJSON = "json"
	EncodingText = "text"
)

// Snapshot records one payload delivered to the status callback.
// Payload holds the body exactly as received.
type Snapshot struct {
	ID         string
	Op         string
	Endpoint   string
	Payload    []byte
	ReceivedAt time.Time
}

type snapshotJSON struct {
	ID         string          `json:"id"`
	Op         string          `json:"op"`
	Endpoint   string          `json:"endpoint,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Encoding   string          `json:"payload_encoding"`
	ReceivedAt time.Time       `json:"received_at"`
}

// EncodePayload turns a response body into embeddable JSON. Valid JSON is kept
// as is; anything else travels as a JSON string.
func EncodePayload(body []byte) (json.RawMessage, string) {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body), EncodingJSON
	}
	quoted, _ := json.Marshal(string(body))
	return quoted, EncodingText
}

// DecodePayload reverses EncodePayload. An empty encoding is read as JSON.
func DecodePayload(raw json.RawMessage, encoding string) ([]byte, error) {
	if encoding != EncodingText {
		return []byte(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode text payload: %w", err)
	}
	return []byte(s), nil
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	payload, enc := EncodePayload(s.Payload)
	return json.Marshal(snapshotJSON{
		ID:         s.ID,
		Op:         s.Op,
		Endpoint:   s.Endpoint,
		Payload:    payload,
		Encoding:   enc,
		ReceivedAt: s.ReceivedAt,
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	payload, err := DecodePayload(w.Payload, w.Encoding)
	if err != nil {
		return err
	}
	*s = Snapshot{
		ID:         w.ID,
		Op:         w.Op,
		Endpoint:   w.Endpoint,
		Payload:    payload,
		ReceivedAt: w.ReceivedAt,
	}
	return nil
}
