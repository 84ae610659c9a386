// Package index implements Index: a bbolt-backed document and embedding
// store supporting typed upsert/delete, filtered search, and brute-force
// cosine similarity search, grounded on pkg/storage's generic DB.
package index

import (
	"encoding/json"
	"fmt"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
)

const (
	docsBucketPrefix       = "index:docs:"
	embeddingsBucketPrefix = "index:embeddings:"
)

func docsBucket(collection string) string       { return docsBucketPrefix + collection }
func embeddingsBucket(collection string) string { return embeddingsBucketPrefix + collection }

// Document is one collection member: a typed payload plus a denormalized
// projection of its filterable fields.
type Document struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
	Fields  map[string]any  `json:"fields"`
}

// Index is one bbolt-backed document and embedding store, one bucket
// pair per collection created on first use.
type Index struct {
	db *storage.DB
}

// Open creates an Index over db. Collections are created lazily as they
// are written to, so no upfront registration is required.
func Open(db *storage.DB) *Index {
	return &Index{db: db}
}

func (ix *Index) ensureCollection(collection string) error {
	if err := ix.db.EnsureBuckets(docsBucket(collection), embeddingsBucket(collection)); err != nil {
		return luterr.Transient("ensure index collection", err)
	}
	return nil
}

// Upsert writes payload under key in collection, along with fields for
// later filtering. Read-your-writes within the same process is
// guaranteed by bbolt's single-writer transactions.
func (ix *Index) Upsert(collection, key string, payload any, fields map[string]any) error {
	if err := ix.ensureCollection(collection); err != nil {
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return luterr.Validation("marshal document payload", err)
	}

	doc := Document{Key: key, Payload: payloadJSON, Fields: fields}
	data, err := json.Marshal(doc)
	if err != nil {
		return luterr.Validation("marshal document", err)
	}

	if err := ix.db.Put(docsBucket(collection), []byte(key), data); err != nil {
		return luterr.Transient("write document", err)
	}
	metrics.DocumentsIndexedTotal.WithLabelValues(collection).Inc()
	return nil
}

// Get reads the document stored under key in collection and unmarshals
// its payload into out. Returns (false, nil) if absent.
func (ix *Index) Get(collection, key string, out any) (bool, error) {
	data, err := ix.db.Get(docsBucket(collection), []byte(key))
	if err != nil {
		return false, luterr.Transient("read document", err)
	}
	if data == nil {
		return false, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, luterr.Fatal("decode document", err)
	}
	if out != nil {
		if err := json.Unmarshal(doc.Payload, out); err != nil {
			return false, luterr.Fatal("decode document payload", err)
		}
	}
	return true, nil
}

// Delete removes the document under key in collection, cascading to
// every embedding document keyed by that same file name in the same
// collection (spec.md §4.4 invariant).
func (ix *Index) Delete(collection, key string) error {
	if err := ix.db.Delete(docsBucket(collection), []byte(key)); err != nil {
		return luterr.Transient("delete document", err)
	}

	var embeddingKeys [][]byte
	prefix := []byte(key + "\x00")
	err := ix.db.ForEachPrefix(embeddingsBucket(collection), prefix, func(k, v []byte) error {
		embeddingKeys = append(embeddingKeys, append([]byte(nil), k...))
		return nil
	})
	if err != nil {
		return luterr.Transient("scan embeddings for cascade delete", err)
	}
	for _, k := range embeddingKeys {
		if err := ix.db.Delete(embeddingsBucket(collection), k); err != nil {
			return luterr.Transient("delete cascaded embedding", err)
		}
	}
	return nil
}

// Search returns documents in collection whose fields match filter,
// ordered by key, paginated by offset/limit.
func (ix *Index) Search(collection string, filter Filter, offset, limit int) ([]Document, error) {
	var matched []Document
	err := ix.db.ForEach(docsBucket(collection), func(key, value []byte) error {
		var doc Document
		if err := json.Unmarshal(value, &doc); err != nil {
			return fmt.Errorf("decode document %q: %w", key, err)
		}
		if filter.Matches(doc.Fields) {
			matched = append(matched, doc)
		}
		return nil
	})
	if err != nil {
		return nil, luterr.Fatal("scan documents", err)
	}

	if offset >= len(matched) {
		return []Document{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
