package sinks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/lobby-status-client/pkg/httpclient"
)

const defaultWebhookTimeout = 5 * time.Second

// httpSink posts events to a webhook. Attributes travel as X-Lobby-* headers.
type httpSink struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func openHTTP(_ context.Context, cfg Config, log Logger) (Sink, error) {
	method := strings.ToUpper(cfg.HTTP.Method)
	if method == "" {
		method = http.MethodPost
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &httpSink{
		id:      cfg.ID,
		method:  method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout),
		log:     log,
	}, nil
}

func (h *httpSink) ID() string { return h.id }

func (h *httpSink) Publish(ctx context.Context, evt Event) error {
	headers := make(map[string]string, len(h.headers)+5)
	for k, v := range evt.Attributes() {
		headers["X-Lobby-"+http.CanonicalHeaderKey(strings.ReplaceAll(k, "_", "-"))] = v
	}
	for k, v := range h.headers {
		headers[k] = v
	}

	resp, err := h.client.Do(ctx, httpclient.Request{
		Method:  h.method,
		URL:     h.url,
		Headers: headers,
		Body:    evt,
	})
	if err != nil {
		return fmt.Errorf("post %s event: %w", evt.Op, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("webhook answered %d for %s event", code, evt.Op)
	}
	h.log.DebugObj("webhook accepted lobby event", "sink_delivery", map[string]any{
		"sink_id": h.id,
		"op":      evt.Op,
		"status":  resp.StatusCode(),
	})
	return nil
}
