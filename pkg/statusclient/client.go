package statusclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"github.com/samvad-hq/lobby-status-client/pkg/httpclient"
)

// Operation names used in errors, logs and snapshots.
const (
	OpAddPlayer    = "add_player"
	OpRemovePlayer = "remove_player"
	OpAddRoom      = "add_room"
	OpStatus       = "status"
	OpStats        = "stats"
)

// Ops lists every operation name.
func Ops() []string {
	return []string{OpAddPlayer, OpRemovePlayer, OpAddRoom, OpStatus, OpStats}
}

const defaultTimeout = 10 * time.Second

// ErrStatsDisabled is returned by FetchStats when no stats endpoint is configured.
var ErrStatsDisabled = errors.New("stats endpoint not configured")

// StatusFunc receives the raw body of every successful call.
// It may be invoked from several goroutines at once, in completion order.
type StatusFunc func(payload domain.StatusPayload)

// Client issues lobby API calls and relays successful bodies to a single StatusFunc.
// It is safe for concurrent use; nothing is mutated after New returns.
type Client struct {
	endpoints Endpoints
	http      httpclient.Client
	onStatus  StatusFunc
	log       Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the logger used to report failed mutations.
func WithLogger(log Logger) Option {
	return func(cl *Client) {
		if log != nil {
			cl.log = log
		}
	}
}

// New builds a Client. The callback is mandatory.
func New(endpoints Endpoints, onStatus StatusFunc, opts ...Option) (*Client, error) {
	if onStatus == nil {
		return nil, errors.New("status callback must not be nil")
	}
	if err := endpoints.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoints: endpoints,
		onStatus:  onStatus,
		log:       noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(defaultTimeout)
	}
	return c, nil
}

// AddPlayer registers a player for the given regions.
func (c *Client) AddPlayer(ctx context.Context, playerName string, regions []string) (bool, error) {
	return c.mutate(ctx, OpAddPlayer, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.AddPlayer,
		Body:   domain.Player{Name: playerName, Regions: nonNil(regions)},
	})
}

// RemovePlayer deletes the player; the name travels only in the URL path.
func (c *Client) RemovePlayer(ctx context.Context, playerName string) (bool, error) {
	return c.mutate(ctx, OpRemovePlayer, httpclient.Request{
		Method: http.MethodDelete,
		URL:    c.endpoints.removePlayerURL(playerName),
	})
}

// AddRoom asks the server to open a room owned by playerName.
func (c *Client) AddRoom(ctx context.Context, playerName, roomName string, regions []string) (bool, error) {
	return c.mutate(ctx, OpAddRoom, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.endpoints.AddRoom,
		Body: domain.Room{
			PlayerName: playerName,
			RoomName:   roomName,
			Regions:    nonNil(regions),
		},
	})
}

// FetchStatus reads the lobby status. Failures are returned to the caller and not logged.
func (c *Client) FetchStatus(ctx context.Context) (bool, error) {
	return c.call(ctx, OpStatus, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.Status,
	})
}

// FetchStats reads the server statistics, behaving like FetchStatus.
func (c *Client) FetchStats(ctx context.Context) (bool, error) {
	if c.endpoints.Stats == "" {
		return false, &Error{Op: OpStats, Kind: KindConfig, Err: ErrStatsDisabled}
	}
	return c.call(ctx, OpStats, httpclient.Request{
		Method: http.MethodGet,
		URL:    c.endpoints.Stats,
	})
}

// mutate is call plus a warning log, since mutation failures never update the UI.
func (c *Client) mutate(ctx context.Context, op string, req httpclient.Request) (bool, error) {
	ok, err := c.call(ctx, op, req)
	if err != nil {
		c.log.WarnObj("lobby request failed", "lobby_error", map[string]any{
			"op":    op,
			"url":   req.URL,
			"error": err.Error(),
		})
	}
	return ok, err
}

func (c *Client) call(ctx context.Context, op string, req httpclient.Request) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return false, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	if c.deliver(resp) {
		c.log.DebugObj("lobby payload delivered", "lobby_delivery", map[string]any{
			"op":    op,
			"bytes": len(resp.Body()),
		})
		return true, nil
	}

	e := &Error{Op: op, Kind: KindStatus}
	if resp != nil {
		e.StatusCode = resp.StatusCode()
		e.Body = bodySnippet(resp.Body())
	}
	return false, e
}

// deliver hands a 200 body to the callback. Any other response is dropped.
func (c *Client) deliver(resp httpclient.Response) bool {
	if resp == nil || resp.StatusCode() != http.StatusOK {
		return false
	}
	c.onStatus(domain.StatusPayload(resp.Body()))
	return true
}

func nonNil(regions []string) []string {
	if regions == nil {
		return []string{}
	}
	return regions
}
