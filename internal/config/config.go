package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samvad-hq/lobby-status-client/pkg/statusclient"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ServerURL       string `mapstructure:"server_url"`
	AddPlayerURL    string `mapstructure:"add_player_url"`
	RemovePlayerURL string `mapstructure:"remove_player_url"`
	AddRoomURL      string `mapstructure:"add_room_url"`
	StatusURL       string `mapstructure:"status_url"`
	StatsURL        string `mapstructure:"stats_url"`

	HTTPTimeoutSeconds   int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout          time.Duration `mapstructure:"-"`
	WatchIntervalSeconds int64         `mapstructure:"watch_interval"`
	WatchInterval        time.Duration `mapstructure:"-"`

	SinksFile string `mapstructure:"sinks_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "lobbyctl")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server_url", "http://localhost:5000")
	v.SetDefault("add_player_url", "")
	v.SetDefault("remove_player_url", "")
	v.SetDefault("add_room_url", "")
	v.SetDefault("status_url", "")
	v.SetDefault("stats_url", "")
	v.SetDefault("http_timeout_seconds", 10)
	v.SetDefault("watch_interval", 5) // seconds
	v.SetDefault("sinks_file", "")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/lobby.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64(time.Hour/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates numeric settings and derives durations.
func (c *Config) finalize() error {
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if c.WatchIntervalSeconds <= 0 {
		return fmt.Errorf("invalid watch_interval (must be positive seconds)")
	}
	c.WatchInterval = time.Duration(c.WatchIntervalSeconds) * time.Second

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	if err := c.Endpoints().Validate(); err != nil {
		return fmt.Errorf("invalid endpoints: %w", err)
	}
	return nil
}

// Endpoints derives the lobby endpoints from server_url, applying any explicit overrides.
func (c *Config) Endpoints() statusclient.Endpoints {
	eps := statusclient.DefaultEndpoints(c.ServerURL)
	override(&eps.AddPlayer, c.AddPlayerURL)
	override(&eps.RemovePlayer, c.RemovePlayerURL)
	override(&eps.AddRoom, c.AddRoomURL)
	override(&eps.Status, c.StatusURL)
	override(&eps.Stats, c.StatsURL)
	return eps
}

func override(dst *string, val string) {
	if val = strings.TrimSpace(val); val != "" {
		*dst = val
	}
}
