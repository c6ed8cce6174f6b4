package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/lobby-status-client/internal/config"
	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"github.com/samvad-hq/lobby-status-client/internal/logger"
	"github.com/samvad-hq/lobby-status-client/internal/storage"
	"github.com/samvad-hq/lobby-status-client/pkg/httpclient"
	"github.com/samvad-hq/lobby-status-client/pkg/sinks"
	"github.com/samvad-hq/lobby-status-client/pkg/statusclient"
	"golang.org/x/sync/errgroup"
)

// Deps lets callers replace the collaborators NewRelay would otherwise build from config.
type Deps struct {
	HTTP   httpclient.Client
	Store  storage.Store
	Fanout *sinks.Fanout
	// Notify is called after a snapshot has been stored and relayed.
	Notify func(domain.Snapshot)
}

// Relay is the status listener of the lobby client. Every delivered payload is
// stored as a snapshot, relayed to sinks and handed to Notify.
type Relay struct {
	ctx           context.Context
	cfg           *config.Config
	endpoints     statusclient.Endpoints
	clients       map[string]*statusclient.Client
	store         storage.Store
	fanout        *sinks.Fanout
	notify        func(domain.Snapshot)
	log           logger.Logger
	watchInterval time.Duration
}

// NewRelay builds the runtime from config. ctx bounds sink deliveries made from the callback.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger, deps Deps) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Relay{
		ctx:           ctx,
		cfg:           cfg,
		store:         deps.Store,
		fanout:        deps.Fanout,
		notify:        deps.Notify,
		log:           log,
		watchInterval: cfg.WatchInterval,
	}

	if r.store == nil {
		store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			SnapshotTTL:     cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		r.store = store
		log.InfoObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}

	if r.fanout == nil {
		fanout, err := buildFanout(ctx, cfg, log)
		if err != nil {
			r.closeStore()
			return nil, err
		}
		r.fanout = fanout
	}

	transport := deps.HTTP
	if transport == nil {
		transport = httpclient.NewRestyClient(cfg.HTTPTimeout)
	}

	// One client per operation so each callback knows which call produced its payload.
	r.endpoints = cfg.Endpoints()
	r.clients = make(map[string]*statusclient.Client)
	for _, op := range statusclient.Ops() {
		c, err := statusclient.New(r.endpoints, r.handler(op),
			statusclient.WithHTTPClient(transport),
			statusclient.WithLogger(log),
		)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("build status client: %w", err)
		}
		r.clients[op] = c
	}

	return r, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*sinks.Fanout, error) {
	if cfg.SinksFile == "" {
		return sinks.NewFanout(), nil
	}

	cfgs, err := sinks.LoadFile(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks: %w", err)
	}
	fanout, err := sinks.Open(ctx, cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("open sinks: %w", err)
	}

	summaries := make([]map[string]any, 0, len(cfgs))
	for _, c := range cfgs {
		summaries = append(summaries, map[string]any{"id": c.ID, "type": c.Type, "ops": c.Ops})
	}
	log.InfoObj("sinks opened", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return fanout, nil
}

// handler returns the status callback for one operation.
func (r *Relay) handler(op string) statusclient.StatusFunc {
	return func(payload domain.StatusPayload) {
		r.record(op, payload)
	}
}

func (r *Relay) record(op string, payload domain.StatusPayload) {
	snap := domain.Snapshot{
		ID:         uuid.NewString(),
		Op:         op,
		Endpoint:   r.endpoints.For(op),
		Payload:    append([]byte(nil), payload...),
		ReceivedAt: time.Now().UTC(),
	}

	if err := r.store.Save(snap); err != nil {
		r.log.ErrorObj("snapshot save failed", "storage_error", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
	}

	if r.fanout.Size() > 0 {
		if delivered, err := r.fanout.Publish(r.ctx, sinks.NewEvent(r.cfg.AppName, snap)); err != nil {
			r.log.WarnObj("sink relay incomplete", "sink_error", map[string]any{
				"op":        op,
				"delivered": delivered,
				"error":     err.Error(),
			})
		}
	}

	if r.notify != nil {
		r.notify(snap)
	}
}

// AddPlayer registers a player with the lobby.
func (r *Relay) AddPlayer(ctx context.Context, name string, regions []string) (bool, error) {
	return r.clients[statusclient.OpAddPlayer].AddPlayer(ctx, name, regions)
}

// RemovePlayer removes a player from the lobby.
func (r *Relay) RemovePlayer(ctx context.Context, name string) (bool, error) {
	return r.clients[statusclient.OpRemovePlayer].RemovePlayer(ctx, name)
}

// AddRoom opens a room for a player.
func (r *Relay) AddRoom(ctx context.Context, player, room string, regions []string) (bool, error) {
	return r.clients[statusclient.OpAddRoom].AddRoom(ctx, player, room, regions)
}

// FetchStatus reads the lobby status once.
func (r *Relay) FetchStatus(ctx context.Context) (bool, error) {
	return r.clients[statusclient.OpStatus].FetchStatus(ctx)
}

// FetchStats reads the server statistics once.
func (r *Relay) FetchStats(ctx context.Context) (bool, error) {
	return r.clients[statusclient.OpStats].FetchStats(ctx)
}

// Snapshot fetches status and stats concurrently. Stats is skipped when not configured.
func (r *Relay) Snapshot(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := r.FetchStatus(gCtx)
		return err
	})
	if r.endpoints.Stats != "" {
		g.Go(func() error {
			_, err := r.FetchStats(gCtx)
			return err
		})
	}
	return g.Wait()
}

// History returns stored snapshots, newest first.
func (r *Relay) History(limit int) ([]domain.Snapshot, error) {
	return r.store.List(limit)
}

// Watch polls the lobby status until the context is cancelled.
func (r *Relay) Watch(ctx context.Context) error {
	if r == nil || len(r.clients) == 0 {
		return fmt.Errorf("relay is not initialized")
	}

	r.log.InfoObj("status watch starting", "watch_state", map[string]any{
		"status_url": r.endpoints.Status,
		"interval":   r.watchInterval.String(),
		"sinks":      r.fanout.Size(),
	})

	r.pollOnce(ctx)

	ticker := time.NewTicker(r.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("status watch exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Relay) pollOnce(ctx context.Context) {
	if _, err := r.FetchStatus(ctx); err != nil && ctx.Err() == nil {
		r.log.ErrorObj("status poll failed", "error", err.Error())
	}
}

// Close releases the store and sinks.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	r.closeStore()
	return r.fanout.Close()
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (r *Relay) closeStore() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err)
	}
}
