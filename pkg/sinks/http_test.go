package sinks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestHTTPSink(t *testing.T, url string, headers map[string]string) Sink {
	t.Helper()
	sink, err := openHTTP(context.Background(), Config{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{URL: url, Headers: headers, TimeoutSeconds: 2},
	}, nopLogger{})
	if err != nil {
		t.Fatalf("openHTTP: %v", err)
	}
	return sink
}

func TestHTTPSinkPostsEventWithLobbyHeaders(t *testing.T) {
	var (
		received Event
		header   http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := newTestHTTPSink(t, srv.URL, map[string]string{"X-Test": "1"})
	evt := Event{ID: "e1", Op: "add_room", Endpoint: "http://lobby/api/v1/rooms", StatusCode: 200, Payload: json.RawMessage(`{"rooms":["room1"]}`), PayloadEncoding: "json"}
	if err := sink.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if received.ID != "e1" || string(received.Payload) != `{"rooms":["room1"]}` {
		t.Fatalf("server received %#v", received)
	}
	if header.Get("X-Test") != "1" || header.Get("X-Lobby-Op") != "add_room" || header.Get("X-Lobby-Status-Code") != "200" {
		t.Fatalf("headers = %v", header)
	}
	if header.Get("X-Lobby-Endpoint") != "http://lobby/api/v1/rooms" {
		t.Fatalf("endpoint header = %q", header.Get("X-Lobby-Endpoint"))
	}
}

func TestHTTPSinkErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := newTestHTTPSink(t, srv.URL, nil)
	if err := sink.Publish(context.Background(), Event{Op: "status"}); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}
