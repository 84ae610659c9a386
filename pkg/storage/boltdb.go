// Package storage provides the single shared bbolt handle used by every
// durable component of the fabric (EventCore, Sched, Index, pkg/kv). It
// generalizes the teacher's per-entity BoltStore into a bucket-keyed
// generic helper, since nothing here is domain-specific: every consumer
// already knows how to marshal its own values.
package storage

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// DB wraps a single bbolt handle shared by all components. bbolt permits
// only one writer at a time across the whole file, which is why the
// fabric opens exactly one DB per process and hands every component a
// distinct set of buckets within it rather than one file each.
type DB struct {
	bolt *bolt.DB
}

// Open opens (creating if absent) the fabric's single bbolt file under
// dataDir and ensures every named bucket exists.
func Open(dataDir string, buckets ...string) (*DB, error) {
	dbPath := filepath.Join(dataDir, "lute.db")

	bdb, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{bolt: bdb}, nil
}

// EnsureBuckets creates any of the named buckets that don't already
// exist. Components call this from their own constructors so a new
// component can add a bucket without every other component's Open call
// needing to know about it.
func (d *DB) EnsureBuckets(buckets ...string) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying bbolt file.
func (d *DB) Close() error {
	return d.bolt.Close()
}

// Put writes value under key in bucket.
func (d *DB) Put(bucket string, key, value []byte) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put(key, value)
	})
}

// Get reads the value under key in bucket. Returns (nil, nil) if absent.
func (d *DB) Get(bucket string, key []byte) ([]byte, error) {
	var out []byte
	err := d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		if v := b.Get(key); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// Delete removes key from bucket. Deleting an absent key is a no-op.
func (d *DB) Delete(bucket string, key []byte) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Delete(key)
	})
}

// ForEach iterates every key/value pair in bucket in key order, stopping
// early if fn returns an error.
func (d *DB) ForEach(bucket string, fn func(key, value []byte) error) error {
	return d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.ForEach(fn)
	})
}

// ForEachPrefix iterates every key/value pair in bucket whose key starts
// with prefix, in key order.
func (d *DB) ForEachPrefix(bucket string, prefix []byte, fn func(key, value []byte) error) error {
	return d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ScanAfter returns up to limit values from bucket whose key sorts
// strictly after the given key, in key order. Passing an empty after
// starts from the beginning of the bucket.
func (d *DB) ScanAfter(bucket string, after []byte, limit int) ([][]byte, error) {
	var out [][]byte
	err := d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		c := b.Cursor()
		var k, v []byte
		if len(after) == 0 {
			k, v = c.First()
		} else {
			k, v = c.Seek(after)
			if k != nil && string(k) == string(after) {
				k, v = c.Next()
			}
		}
		for ; k != nil && len(out) < limit; k, v = c.Next() {
			out = append(out, append([]byte(nil), v...))
		}
		return nil
	})
	return out, err
}

// CountAfter returns the number of keys in bucket strictly after the
// given key, used to report subscriber cursor lag without materializing
// every entry.
func (d *DB) CountAfter(bucket string, after []byte) (int64, error) {
	var n int64
	err := d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		c := b.Cursor()
		var k []byte
		if len(after) == 0 {
			k, _ = c.First()
		} else {
			k, _ = c.Seek(after)
			if k != nil && string(k) == string(after) {
				k, _ = c.Next()
			}
		}
		for ; k != nil; k, _ = c.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Update runs fn in a single read-write transaction scoped to bucket,
// for components that need read-modify-write atomicity (e.g. a
// compare-and-swap on a cursor) beyond single Put/Get calls.
func (d *DB) Update(bucket string, fn func(b *bolt.Bucket) error) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return fn(b)
	})
}

// View runs fn in a single read-only transaction scoped to bucket.
func (d *DB) View(bucket string, fn func(b *bolt.Bucket) error) error {
	return d.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return fn(b)
	})
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
