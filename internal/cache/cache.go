// Package cache is a local bbolt-backed snapshot store for Jira issues, so
// repeated scoring runs against the same backlog do not refetch every issue.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var issuesBucket = []byte("issues")

// entry wraps a cached payload with its fetch time for TTL checks.
type entry struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Store is a TTL cache keyed by issue key. Expired or unreadable entries
// behave like misses; the cache never makes a run fail.
type Store struct {
	db     *bolt.DB
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Open creates or opens the cache database under dir.
func Open(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "issues.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(issuesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Store{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default().With("component", "cache"),
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get unmarshals a fresh cached value into out. It returns false on a miss,
// an expired entry, or a decode failure.
func (s *Store) Get(key string, out any) bool {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(issuesBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.logger.Debug("discarding corrupt cache entry", "key", key)
		return false
	}
	if s.now().Sub(e.FetchedAt) > s.ttl {
		return false
	}
	if err := json.Unmarshal(e.Payload, out); err != nil {
		s.logger.Debug("discarding unreadable cache payload", "key", key)
		return false
	}
	return true
}

// Put stores a value under key with the current time.
func (s *Store) Put(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	raw, err := json.Marshal(entry{FetchedAt: s.now(), Payload: payload})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(issuesBucket).Put([]byte(key), raw)
	})
}

// GetOrFetch reads through the cache: a fresh entry is returned directly,
// anything else calls fetch and caches the result. A failed cache write is
// logged, not returned; the fetched value is still good.
func GetOrFetch[T any](s *Store, key string, fetch func() (T, error)) (T, error) {
	var cached T
	if s != nil && s.Get(key, &cached) {
		return cached, nil
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}
	if s != nil {
		if err := s.Put(key, value); err != nil {
			s.logger.Warn("could not cache value", "key", key, "error", err)
		}
	}
	return value, nil
}
