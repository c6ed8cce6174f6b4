package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSnapshotKeepsJSONPayloadInline(t *testing.T) {
	snap := Snapshot{ID: "s1", Op: "status", Payload: []byte(`{"max_players":100}`), ReceivedAt: time.Unix(10, 0).UTC()}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"payload":{"max_players":100}`) || !strings.Contains(string(raw), `"payload_encoding":"json"`) {
		t.Fatalf("unexpected encoding %s", raw)
	}

	var back Snapshot
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(back.Payload) != `{"max_players":100}` || back.ID != "s1" {
		t.Fatalf("decoded %#v", back)
	}
}

func TestSnapshotWrapsNonJSONPayload(t *testing.T) {
	for _, body := range []string{"lobby ok (not json)", "", `{"broken":`} {
		raw, err := json.Marshal(Snapshot{ID: "s1", Op: "status", Payload: []byte(body)})
		if err != nil {
			t.Fatalf("Marshal %q: %v", body, err)
		}
		if !strings.Contains(string(raw), `"payload_encoding":"text"`) {
			t.Fatalf("body %q not marked as text: %s", body, raw)
		}

		var back Snapshot
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("Unmarshal %q: %v", body, err)
		}
		if string(back.Payload) != body {
			t.Fatalf("payload = %q, want %q", back.Payload, body)
		}
	}
}

func TestSnapshotReadsRecordsWithoutEncoding(t *testing.T) {
	var s Snapshot
	if err := json.Unmarshal([]byte(`{"id":"old","op":"status","payload":{"a":1}}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(s.Payload) != `{"a":1}` {
		t.Fatalf("payload = %s", s.Payload)
	}
}
