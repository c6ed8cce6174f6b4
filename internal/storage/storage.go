package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
)

// Package storage keeps a short local history of delivered lobby payloads.

// Store records snapshots delivered to the status callback.
type Store interface {
	Close() error
	Save(s domain.Snapshot) error
	// Latest returns the newest live snapshot, if any.
	Latest() (domain.Snapshot, bool, error)
	// List returns live snapshots newest first; limit <= 0 means all.
	List(limit int) ([]domain.Snapshot, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
	// ReadOnly stores reject Save and never create the database file.
	ReadOnly bool
}

const (
	defaultSnapshotTTL     = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// ErrReadOnly is returned by Save on a store opened with Options.ReadOnly.
var ErrReadOnly = errors.New("snapshot store is read-only")

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) Save(domain.Snapshot) error             { return nil }
func (noopStore) Latest() (domain.Snapshot, bool, error) { return domain.Snapshot{}, false, nil }
func (noopStore) List(int) ([]domain.Snapshot, error)    { return nil, nil }
