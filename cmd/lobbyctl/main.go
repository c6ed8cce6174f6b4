package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/samvad-hq/lobby-status-client/internal/app"
	"github.com/samvad-hq/lobby-status-client/internal/config"
	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"github.com/samvad-hq/lobby-status-client/internal/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "lobbyctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lobbyctl",
		Usage: "Drive the matchmaking lobby API and follow its status",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   formatJSON,
				Usage:   "payload format: json or yaml",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "add-player",
				Usage: "Queue a player for one or more regions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringSliceFlag{Name: "region", Aliases: []string{"r"}},
				},
				Action: withRelay(func(ctx context.Context, c *cli.Context, r *app.Relay) error {
					_, err := r.AddPlayer(ctx, c.String("name"), c.StringSlice("region"))
					return err
				}),
			},
			{
				Name:  "remove-player",
				Usage: "Remove a player from the lobby",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
				},
				Action: withRelay(func(ctx context.Context, c *cli.Context, r *app.Relay) error {
					_, err := r.RemovePlayer(ctx, c.String("name"))
					return err
				}),
			},
			{
				Name:  "add-room",
				Usage: "Open a room owned by a player",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "player", Required: true},
					&cli.StringFlag{Name: "room", Required: true},
					&cli.StringSliceFlag{Name: "region", Aliases: []string{"r"}},
				},
				Action: withRelay(func(ctx context.Context, c *cli.Context, r *app.Relay) error {
					_, err := r.AddRoom(ctx, c.String("player"), c.String("room"), c.StringSlice("region"))
					return err
				}),
			},
			{
				Name:  "status",
				Usage: "Print the lobby status once",
				Action: withRelay(func(ctx context.Context, _ *cli.Context, r *app.Relay) error {
					_, err := r.FetchStatus(ctx)
					return err
				}),
			},
			{
				Name:  "stats",
				Usage: "Print the server statistics once",
				Action: withRelay(func(ctx context.Context, _ *cli.Context, r *app.Relay) error {
					_, err := r.FetchStats(ctx)
					return err
				}),
			},
			{
				Name:  "snapshot",
				Usage: "Fetch status and stats together",
				Action: withRelay(func(ctx context.Context, _ *cli.Context, r *app.Relay) error {
					return r.Snapshot(ctx)
				}),
			},
			{
				Name:  "watch",
				Usage: "Poll the lobby status until interrupted",
				Action: withRelay(func(ctx context.Context, _ *cli.Context, r *app.Relay) error {
					return r.Watch(ctx)
				}),
			},
			{
				Name:  "history",
				Usage: "List stored payloads, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: func(c *cli.Context) error {
					if err := validateFormat(c.String("output")); err != nil {
						return err
					}
					cfg, err := config.Load()
					if err != nil {
						return fmt.Errorf("load config: %w", err)
					}
					snaps, err := app.ReadHistory(cfg, c.Int("limit"))
					if err != nil {
						return err
					}
					for _, s := range snaps {
						if err := printSnapshot(c.App.Writer, c.String("output"), s); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
	}
}

type relayAction func(ctx context.Context, c *cli.Context, r *app.Relay) error

// withRelay loads config and logging, builds a relay that prints every delivered
// payload, and runs fn under a signal-aware context.
func withRelay(fn relayAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		format := c.String("output")
		if err := validateFormat(format); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log, err := logger.Init(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer logger.Close()

		logger.InfoObj("lobbyctl starting", "lobby_meta", map[string]any{
			"command":  c.Command.Name,
			"server":   cfg.ServerURL,
			"storage":  cfg.StorageType,
			"sinks":    cfg.SinksFile,
			"interval": cfg.WatchInterval.String(),
		})

		ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Snapshot delivers status and stats from two goroutines.
		var outMu sync.Mutex
		out := c.App.Writer
		relay, err := app.NewRelay(ctx, cfg, log, app.Deps{
			Notify: func(s domain.Snapshot) {
				outMu.Lock()
				defer outMu.Unlock()
				if err := printSnapshot(out, format, s); err != nil {
					log.ErrorObj("print payload failed", "error", err.Error())
				}
			},
		})
		if err != nil {
			logger.ErrorObj("failed to initialize relay", "error", err.Error())
			return fmt.Errorf("init relay: %w", err)
		}
		defer relay.Close()

		return fn(ctx, c, relay)
	}
}
