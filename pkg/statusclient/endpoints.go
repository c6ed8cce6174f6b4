package statusclient

import (
	"fmt"
	"net/url"
	"strings"
)

const apiPrefix = "/api/v1"

// Endpoints holds the absolute URLs of the lobby API.
type Endpoints struct {
	AddPlayer    string `json:"add_player" yaml:"add_player"`
	RemovePlayer string `json:"remove_player" yaml:"remove_player"`
	AddRoom      string `json:"add_room" yaml:"add_room"`
	Status       string `json:"status" yaml:"status"`
	Stats        string `json:"stats" yaml:"stats"`
}

// DefaultEndpoints lays the endpoints out the way the lobby server routes them.
func DefaultEndpoints(baseURL string) Endpoints {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/") + apiPrefix
	return Endpoints{
		AddPlayer:    base + "/players",
		RemovePlayer: base + "/players",
		AddRoom:      base + "/rooms",
		Status:       base + "/status",
		Stats:        base + "/stats",
	}
}

// Validate checks the mandatory endpoints. Stats may be left empty.
func (e Endpoints) Validate() error {
	required := []struct {
		name string
		val  string
	}{
		{"add_player", e.AddPlayer},
		{"remove_player", e.RemovePlayer},
		{"add_room", e.AddRoom},
		{"status", e.Status},
	}
	for _, r := range required {
		if err := validateURL(r.name, r.val); err != nil {
			return err
		}
	}
	if strings.TrimSpace(e.Stats) != "" {
		return validateURL("stats", e.Stats)
	}
	return nil
}

func validateURL(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s endpoint is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s endpoint: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s endpoint must be an absolute http(s) url, got %q", name, raw)
	}
	return nil
}

// removePlayerURL appends the escaped player name as the last path segment.
func (e Endpoints) removePlayerURL(playerName string) string {
	return strings.TrimRight(e.RemovePlayer, "/") + "/" + url.PathEscape(playerName)
}

// For returns the configured endpoint of op, or "" for an unknown op.
func (e Endpoints) For(op string) string {
	switch op {
	case OpAddPlayer:
		return e.AddPlayer
	case OpRemovePlayer:
		return e.RemovePlayer
	case OpAddRoom:
		return e.AddRoom
	case OpStatus:
		return e.Status
	case OpStats:
		return e.Stats
	default:
		return ""
	}
}
