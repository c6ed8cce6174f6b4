package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
)

func TestPrintSnapshotYAML(t *testing.T) {
	var buf bytes.Buffer
	snap := domain.Snapshot{
		ID:         "id-1",
		Op:         "status",
		Payload:    json.RawMessage(`{"max_players":100,"queue":["alice"]}`),
		ReceivedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := printSnapshot(&buf, formatYAML, snap); err != nil {
		t.Fatalf("printSnapshot: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "# 2026-01-02T03:04:05Z status id-1\n") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "max_players: 100") || !strings.Contains(out, "- alice") {
		t.Fatalf("unexpected yaml body: %q", out)
	}
}

func TestPrintSnapshotFallsBackToRawBody(t *testing.T) {
	var buf bytes.Buffer
	snap := domain.Snapshot{Op: "status", Payload: json.RawMessage(`not json`)}
	if err := printSnapshot(&buf, formatJSON, snap); err != nil {
		t.Fatalf("printSnapshot: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "not json\n") {
		t.Fatalf("expected raw body, got %q", buf.String())
	}
}

func TestValidateFormat(t *testing.T) {
	if err := validateFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
	if err := validateFormat(formatYAML); err != nil {
		t.Fatalf("yaml should be accepted: %v", err)
	}
}
