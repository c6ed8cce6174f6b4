package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/config"
	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"github.com/samvad-hq/lobby-status-client/pkg/sinks"
	"github.com/samvad-hq/lobby-status-client/pkg/statusclient"
)

// recordingSink captures relayed events.
type recordingSink struct {
	mu     sync.Mutex
	events []sinks.Event
}

func (s *recordingSink) ID() string { return "rec" }
func (s *recordingSink) Publish(_ context.Context, evt sinks.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// lobbyServer fakes the four lobby endpoints plus stats.
func lobbyServer(t *testing.T, statusHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/players", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"queue":[{"name":"alice"}]}`))
	})
	mux.HandleFunc("/api/v1/players/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Cannot delete player", http.StatusBadRequest)
	})
	mux.HandleFunc("/api/v1/rooms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"regions":[]}`))
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		if statusHits != nil {
			statusHits.Add(1)
		}
		_, _ = w.Write([]byte(`{"max_players":100}`))
	})
	mux.HandleFunc("/api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"games":0}`))
	})
	return httptest.NewServer(mux)
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "lobbyctl",
		ServerURL:              serverURL,
		HTTPTimeout:            2 * time.Second,
		WatchInterval:          10 * time.Millisecond,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(t.TempDir(), "lobby.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func TestRelayRecordsSuccessfulMutations(t *testing.T) {
	srv := lobbyServer(t, nil)
	defer srv.Close()

	sink := &recordingSink{}
	var notified []domain.Snapshot
	relay, err := NewRelay(context.Background(), testConfig(t, srv.URL), nil, Deps{
		Fanout: sinks.NewFanout(sink),
		Notify: func(s domain.Snapshot) { notified = append(notified, s) },
	})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	ok, err := relay.AddPlayer(context.Background(), "alice", []string{"EUROPA"})
	if err != nil || !ok {
		t.Fatalf("AddPlayer = %v, %v", ok, err)
	}

	if len(notified) != 1 || notified[0].Op != statusclient.OpAddPlayer {
		t.Fatalf("notified = %#v", notified)
	}
	if string(notified[0].Payload) != `{"queue":[{"name":"alice"}]}` {
		t.Fatalf("payload = %s", notified[0].Payload)
	}
	if sink.count() != 1 || sink.events[0].Source != "lobbyctl" {
		t.Fatalf("sink events = %#v", sink.events)
	}
	if notified[0].Endpoint != srv.URL+"/api/v1/players" || sink.events[0].Endpoint != notified[0].Endpoint {
		t.Fatalf("endpoint = %q / %q", notified[0].Endpoint, sink.events[0].Endpoint)
	}

	history, err := relay.History(0)
	if err != nil || len(history) != 1 || history[0].ID != notified[0].ID {
		t.Fatalf("history = %#v, err %v", history, err)
	}
}

func TestRelayDropsFailedCalls(t *testing.T) {
	srv := lobbyServer(t, nil)
	defer srv.Close()

	sink := &recordingSink{}
	relay, err := NewRelay(context.Background(), testConfig(t, srv.URL), nil, Deps{
		Fanout: sinks.NewFanout(sink),
	})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	ok, err := relay.RemovePlayer(context.Background(), "alice")
	if ok || err == nil {
		t.Fatalf("RemovePlayer = %v, %v; want failure", ok, err)
	}
	if sink.count() != 0 {
		t.Fatalf("failed call must not be relayed")
	}
	if history, _ := relay.History(0); len(history) != 0 {
		t.Fatalf("failed call must not be stored, got %d", len(history))
	}
}

func TestRelaySnapshotFetchesStatusAndStats(t *testing.T) {
	srv := lobbyServer(t, nil)
	defer srv.Close()

	var mu sync.Mutex
	ops := map[string]int{}
	relay, err := NewRelay(context.Background(), testConfig(t, srv.URL), nil, Deps{
		Notify: func(s domain.Snapshot) {
			mu.Lock()
			ops[s.Op]++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	if err := relay.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if ops[statusclient.OpStatus] != 1 || ops[statusclient.OpStats] != 1 {
		t.Fatalf("ops = %#v", ops)
	}
}

func TestRelayWatchPollsUntilCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := lobbyServer(t, &hits)
	defer srv.Close()

	relay, err := NewRelay(context.Background(), testConfig(t, srv.URL), nil, Deps{})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := relay.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if hits.Load() < 2 {
		t.Fatalf("expected repeated polls, got %d", hits.Load())
	}

	latest, err := relay.History(1)
	if err != nil || len(latest) != 1 || latest[0].Op != statusclient.OpStatus {
		t.Fatalf("latest = %#v, err %v", latest, err)
	}
}

func TestRelayWatchSurvivesServerDown(t *testing.T) {
	srv := lobbyServer(t, nil)
	cfg := testConfig(t, srv.URL)
	srv.Close()

	relay, err := NewRelay(context.Background(), cfg, nil, Deps{})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := relay.Watch(ctx); err != nil {
		t.Fatalf("Watch should keep polling through failures, got %v", err)
	}
}

func TestRelayStoresNonJSONStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("lobby ok (not json)"))
	}))
	defer srv.Close()

	sink := &recordingSink{}
	cfg := testConfig(t, srv.URL)
	relay, err := NewRelay(context.Background(), cfg, nil, Deps{Fanout: sinks.NewFanout(sink)})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	if ok, err := relay.FetchStatus(context.Background()); !ok || err != nil {
		t.Fatalf("FetchStatus = %v, %v", ok, err)
	}

	history, err := relay.History(0)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %d items, err %v", len(history), err)
	}
	if string(history[0].Payload) != "lobby ok (not json)" {
		t.Fatalf("stored payload = %q", history[0].Payload)
	}

	if sink.count() != 1 || sink.events[0].PayloadEncoding != domain.EncodingText {
		t.Fatalf("sink events = %#v", sink.events)
	}
	if _, err := json.Marshal(sink.events[0]); err != nil {
		t.Fatalf("relayed event does not encode: %v", err)
	}
}

func TestReadHistoryWhileRelayIsOpen(t *testing.T) {
	srv := lobbyServer(t, nil)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	relay, err := NewRelay(context.Background(), cfg, nil, Deps{})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	defer relay.Close()

	if _, err := relay.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}

	history, err := ReadHistory(cfg, 10)
	if err != nil || len(history) != 1 || history[0].Op != statusclient.OpStatus {
		t.Fatalf("ReadHistory = %#v, err %v", history, err)
	}

	// The relay can still write after the read.
	if _, err := relay.FetchStats(context.Background()); err != nil {
		t.Fatalf("FetchStats after read: %v", err)
	}
	if history, _ := relay.History(0); len(history) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(history))
	}
}

func TestNewRelayRequiresConfig(t *testing.T) {
	if _, err := NewRelay(context.Background(), nil, nil, Deps{}); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
