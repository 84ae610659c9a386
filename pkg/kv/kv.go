// Package kv implements a typed, TTL-aware blob cache over pkg/storage,
// used by EmbedCore to cache generated embeddings by content hash
// (spec.md §4.5 step 2) and available to any other component that needs
// a simple expiring key/value store.
package kv

import (
	"encoding/json"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
)

const bucketPrefix = "kv:"

func bucket(namespace string) string { return bucketPrefix + namespace }

type entry struct {
	Value     []byte     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// Store is a namespaced TTL-aware blob cache, one bbolt bucket per
// namespace created lazily on first write.
type Store struct {
	db *storage.DB
}

// Open creates a Store over db.
func Open(db *storage.DB) *Store {
	return &Store{db: db}
}

// Set writes value under key in namespace. A zero or negative ttl means
// the entry never expires.
func (s *Store) Set(namespace, key string, value []byte, ttl time.Duration) error {
	if err := s.db.EnsureBuckets(bucket(namespace)); err != nil {
		return luterr.Transient("ensure kv namespace", err)
	}

	e := entry{Value: value}
	if ttl > 0 {
		expiresAt := time.Now().Add(ttl)
		e.ExpiresAt = &expiresAt
	}

	data, err := json.Marshal(e)
	if err != nil {
		return luterr.Validation("marshal kv entry", err)
	}
	if err := s.db.Put(bucket(namespace), []byte(key), data); err != nil {
		return luterr.Transient("write kv entry", err)
	}
	return nil
}

// Get reads the value under key in namespace. Returns (nil, false, nil)
// if absent or expired; an expired entry is lazily deleted.
func (s *Store) Get(namespace, key string) ([]byte, bool, error) {
	if err := s.db.EnsureBuckets(bucket(namespace)); err != nil {
		return nil, false, luterr.Transient("ensure kv namespace", err)
	}
	data, err := s.db.Get(bucket(namespace), []byte(key))
	if err != nil {
		return nil, false, luterr.Transient("read kv entry", err)
	}
	if data == nil {
		return nil, false, nil
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, luterr.Fatal("decode kv entry", err)
	}
	if e.expired(time.Now()) {
		_ = s.Delete(namespace, key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Keys returns every non-expired key currently stored in namespace, for
// callers that need to enumerate a namespace rather than look up one
// key at a time (e.g. FileService.ListFiles over the raw content store).
func (s *Store) Keys(namespace string) ([]string, error) {
	if err := s.db.EnsureBuckets(bucket(namespace)); err != nil {
		return nil, luterr.Transient("ensure kv namespace", err)
	}
	var keys []string
	now := time.Now()
	err := s.db.ForEach(bucket(namespace), func(key, value []byte) error {
		var e entry
		if err := json.Unmarshal(value, &e); err != nil {
			return err
		}
		if e.expired(now) {
			return nil
		}
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		return nil, luterr.Fatal("scan kv namespace", err)
	}
	return keys, nil
}

// Delete removes key from namespace. Deleting an absent key is a no-op.
func (s *Store) Delete(namespace, key string) error {
	if err := s.db.EnsureBuckets(bucket(namespace)); err != nil {
		return luterr.Transient("ensure kv namespace", err)
	}
	if err := s.db.Delete(bucket(namespace), []byte(key)); err != nil {
		return luterr.Transient("delete kv entry", err)
	}
	return nil
}
