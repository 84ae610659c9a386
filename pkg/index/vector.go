package index

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

func embeddingKey(fileName, provider string) string {
	return fileName + "\x00" + provider
}

// UpsertEmbedding writes fileName's embedding for provider (the
// composite (file_name, key) document spec.md §4.4 describes).
func (ix *Index) UpsertEmbedding(collection string, fileName types.FileName, provider string, vector []float32) error {
	if err := ix.ensureCollection(collection); err != nil {
		return err
	}
	doc := types.EmbeddingDocument{
		FileName:  fileName,
		Key:       provider,
		Embedding: vector,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return luterr.Validation("marshal embedding document", err)
	}
	if err := ix.db.Put(embeddingsBucket(collection), []byte(embeddingKey(fileName.String(), provider)), data); err != nil {
		return luterr.Transient("write embedding document", err)
	}
	return nil
}

// DeleteEmbedding removes fileName's embedding for provider.
func (ix *Index) DeleteEmbedding(collection string, fileName types.FileName, provider string) error {
	if err := ix.db.Delete(embeddingsBucket(collection), []byte(embeddingKey(fileName.String(), provider))); err != nil {
		return luterr.Transient("delete embedding document", err)
	}
	return nil
}

// ScoredDocument pairs a primary document with its similarity score
// against a vector search's query.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// VectorSearch returns the top-k documents in collection, ranked by
// cosine similarity of their provider embedding against query, restricted
// to documents whose Fields satisfy filter. Brute-force: appropriate at
// this service's catalog scale, not web scale (see package doc).
func (ix *Index) VectorSearch(collection, provider string, query []float32, filter Filter, k int) ([]ScoredDocument, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.SearchDuration, collection)

	var candidates []ScoredDocument
	err := ix.db.ForEach(embeddingsBucket(collection), func(key, value []byte) error {
		var doc types.EmbeddingDocument
		if err := json.Unmarshal(value, &doc); err != nil {
			return luterr.Fatal("decode embedding document", err)
		}
		if doc.Key != provider {
			return nil
		}

		found, primary, err := ix.getDocument(collection, doc.FileName.String())
		if err != nil {
			return err
		}
		if !found || !filter.Matches(primary.Fields) {
			return nil
		}

		candidates = append(candidates, ScoredDocument{
			Document: primary,
			Score:    cosineSimilarity(query, doc.Embedding),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	metrics.SearchResultsReturned.Observe(float64(len(candidates)))
	return candidates, nil
}

func (ix *Index) getDocument(collection, key string) (bool, Document, error) {
	data, err := ix.db.Get(docsBucket(collection), []byte(key))
	if err != nil {
		return false, Document{}, luterr.Transient("read document for vector search", err)
	}
	if data == nil {
		return false, Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, Document{}, luterr.Fatal("decode document for vector search", err)
	}
	return true, doc, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
