package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/lobby-status-client/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	snapshotBucket   = "snapshots"
	expiryValueBytes = 8
	lockTimeout      = 2 * time.Second
)

// boltStore implements a Store backed by BoltDB.
// Keys are big-endian receive timestamps followed by the snapshot id, so cursor
// order is chronological. Values are an 8-byte expiry followed by the JSON snapshot.
//
// The file is opened for each transaction and closed right after, so a long
// running watch does not keep the file lock and history can read alongside it.
type boltStore struct {
	path            string
	readOnly        bool
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	snapshotTTL     time.Duration
	cleanupInterval time.Duration
}

// openBolt prepares a BoltDB-backed Store at path.
func openBolt(path string, opts Options) (Store, error) {
	store := &boltStore{
		path:            path,
		readOnly:        opts.ReadOnly,
		snapshotTTL:     opts.SnapshotTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())

	if opts.ReadOnly {
		return store, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	err := store.update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init bucket: %w", err)
	}
	return store, nil
}

// update runs fn in a write transaction on a freshly opened db.
func (b *boltStore) update(fn func(tx *bolt.Tx) error) error {
	db, err := bolt.Open(b.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("open bbolt db: %w", err)
	}
	defer db.Close()
	return db.Update(fn)
}

// view runs fn in a read transaction. A missing file reads as empty.
func (b *boltStore) view(fn func(tx *bolt.Tx) error) error {
	if b.readOnly {
		if _, err := os.Stat(b.path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	db, err := bolt.Open(b.path, 0o600, &bolt.Options{Timeout: lockTimeout, ReadOnly: b.readOnly})
	if err != nil {
		return fmt.Errorf("open bbolt db: %w", err)
	}
	defer db.Close()
	return db.View(fn)
}

// Close is a no-op; no handle outlives a transaction.
func (b *boltStore) Close() error { return nil }

// Save persists the snapshot with the configured TTL.
func (b *boltStore) Save(s domain.Snapshot) error {
	if b == nil {
		return nil
	}
	if b.readOnly {
		return ErrReadOnly
	}

	now := time.Now()
	if s.ReceivedAt.IsZero() {
		s.ReceivedAt = now.UTC()
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	value := make([]byte, expiryValueBytes, expiryValueBytes+len(raw))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.snapshotTTL).Unix()))
	value = append(value, raw...)

	return b.update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		if err != nil {
			return err
		}
		if err := b.maybeCleanupExpired(bucket, now); err != nil {
			return err
		}
		return bucket.Put(snapshotKey(s), value)
	})
}

// Latest returns the newest snapshot that has not expired.
func (b *boltStore) Latest() (domain.Snapshot, bool, error) {
	list, err := b.List(1)
	if err != nil || len(list) == 0 {
		return domain.Snapshot{}, false, err
	}
	return list[0], true, nil
}

// List walks the bucket backwards, skipping expired entries.
func (b *boltStore) List(limit int) ([]domain.Snapshot, error) {
	if b == nil {
		return nil, nil
	}

	now := time.Now()
	var out []domain.Snapshot
	err := b.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var s domain.Snapshot
			if err := json.Unmarshal(v[expiryValueBytes:], &s); err != nil {
				return fmt.Errorf("decode snapshot %q: %w", k, err)
			}
			out = append(out, s)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired drops expired snapshots at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(bucket *bolt.Bucket, now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	cursor := bucket.Cursor()
	for k, v := cursor.First(); k != nil; {
		expiry, ok := decodeExpiry(v)
		if ok && expiry.After(now) {
			k, v = cursor.Next()
			continue
		}
		seek := append([]byte(nil), k...)
		if err := cursor.Delete(); err != nil {
			return err
		}
		k, v = cursor.Seek(seek)
	}
	b.lastCleanup.Store(now.Unix())
	return nil
}

func snapshotKey(s domain.Snapshot) []byte {
	key := make([]byte, 8, 8+len(s.ID))
	binary.BigEndian.PutUint64(key, uint64(s.ReceivedAt.UnixNano()))
	return append(key, s.ID...)
}

// decodeExpiry decodes the expiry prefix of a stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
