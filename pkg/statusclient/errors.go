package statusclient

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind classifies why a call did not reach the status callback.
type Kind int

const (
	// KindTransport means no HTTP response was received (dial, timeout, cancelled context).
	KindTransport Kind = iota + 1
	// KindStatus means the server answered with something other than 200.
	KindStatus
	// KindConfig means the call was never attempted because its endpoint is not configured.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that did not deliver a payload.
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Body != "" {
			return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}
