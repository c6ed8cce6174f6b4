package app

import (
	"fmt"

	"github.com/samvad-hq/lobby-status-client/internal/config"
	"github.com/samvad-hq/lobby-status-client/internal/domain"
	"github.com/samvad-hq/lobby-status-client/internal/storage"
)

// ReadHistory lists stored snapshots, newest first, without building a relay.
// The store is opened read-only, so a running watch keeps writing meanwhile.
func ReadHistory(cfg *config.Config, limit int) ([]domain.Snapshot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		ReadOnly:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	return store.List(limit)
}
