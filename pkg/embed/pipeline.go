package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/health"
	"github.com/shedrachokonofua/lute-sub001/pkg/index"
	"github.com/shedrachokonofua/lute-sub001/pkg/kv"
	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const (
	cacheNamespace = "embeddings"
	cacheTTL       = 30 * 24 * time.Hour
	contentHashKV  = "embedding-content-hash"
)

// AlbumCollection is the Index collection EmbedCore upserts embedding
// documents into and reads AlbumReadModel projections back from.
const AlbumCollection = "albums"

// ContentHash computes the stable fingerprint over model's
// embedding-relevant fields (spec.md §3 Content hash / Glossary). Two
// read models with the same hash produce the same embedding input, so
// the pipeline can skip re-generating one whose hash hasn't moved.
func ContentHash(model types.AlbumReadModel) string {
	artists := append([]string(nil), model.ArtistNames...)
	sort.Strings(artists)
	genres := append([]string(nil), model.Genres...)
	sort.Strings(genres)
	descriptors := append([]string(nil), model.Descriptors...)
	sort.Strings(descriptors)

	canonical := struct {
		Name        string   `json:"name"`
		Artists     []string `json:"artists"`
		Genres      []string `json:"genres"`
		Descriptors []string `json:"descriptors"`
		RatingCount int      `json:"rating_count"`
		AvgRating   float64  `json:"avg_rating"`
	}{model.Name, artists, genres, descriptors, model.RatingCount, model.AvgRating}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EmbeddingText renders the text a provider embeds for model from its
// name, artist names, genres and descriptors. ContentHash covers these
// fields and also RatingCount and AvgRating, which are not in the text.
func EmbeddingText(model types.AlbumReadModel) string {
	text := model.Name
	for _, a := range model.ArtistNames {
		text += " " + a
	}
	for _, g := range model.Genres {
		text += " " + g
	}
	for _, d := range model.Descriptors {
		text += " " + d
	}
	return text
}

// ReadModelSource supplies the album read models a provider's embedding
// job should consider. Implemented outside this package: the read-model
// store itself is the relational store, an external collaborator
// (spec.md §1), not part of EmbedCore.
type ReadModelSource interface {
	ListAlbums(ctx context.Context) ([]types.AlbumReadModel, error)
}

// Pipeline runs the embedding job described in spec.md §4.5 for any
// number of registered providers, backed by a shared KV content cache
// and Index.
type Pipeline struct {
	kv    *kv.Store
	index *index.Index

	mu     sync.Mutex
	gates  map[string]*RateGate
	status map[string]*health.Status
}

// New creates a Pipeline over kvStore and idx.
func New(kvStore *kv.Store, idx *index.Index) *Pipeline {
	return &Pipeline{
		kv:     kvStore,
		index:  idx,
		gates:  make(map[string]*RateGate),
		status: make(map[string]*health.Status),
	}
}

func (p *Pipeline) gate(cfg types.ProviderConfig) *RateGate {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gates[cfg.Name]
	if !ok {
		g = NewRateGate(cfg.Interval, 0.2)
		p.gates[cfg.Name] = g
	}
	return g
}

// ProviderStatus returns the current health.Status for provider,
// creating one (assumed healthy) on first observation.
func (p *Pipeline) ProviderStatus(name string) *health.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.status[name]
	if !ok {
		s = health.NewStatus()
		p.status[name] = s
	}
	return s
}

// contentHashKey is the KV key recording the last content hash observed
// for (provider, file_name), used to decide whether a target needs
// re-embedding (spec.md §4.5 step 1).
func contentHashKey(provider string, fileName types.FileName) string {
	return provider + ":" + fileName.String()
}

func cacheKey(provider, hash string) string {
	return "embedding:" + provider + ":" + hash
}

// RunResult summarizes one pipeline execution for logging and tests.
type RunResult struct {
	Considered int
	Skipped    int
	CacheHits  int
	Generated  int
	Failed     int
}

// SelectTargets returns the subset of models that either have no
// recorded content hash for provider, or whose current hash differs
// from the one last embedded (spec.md §4.5 step 1), truncated to limit.
// Selection reads only the KV content-hash marker: a model whose
// embedding was removed from Index while its marker still matches is
// not selected.
func (p *Pipeline) SelectTargets(models []types.AlbumReadModel, provider string, limit int) ([]types.AlbumReadModel, error) {
	var targets []types.AlbumReadModel
	for _, model := range models {
		hash := ContentHash(model)
		stored, found, err := p.kv.Get(contentHashKV, contentHashKey(provider, model.FileName))
		if err != nil {
			return nil, err
		}
		if found && string(stored) == hash {
			continue
		}
		targets = append(targets, model)
		if limit > 0 && len(targets) >= limit {
			break
		}
	}
	return targets, nil
}

// Run executes one pass of the embedding job for provider over models:
// selects targets, reuses the KV content-hash cache where possible,
// dispatches the remainder in batches across provider.Config().
// Concurrency workers paced by a per-provider RateGate, and upserts
// results into Index under collection. Re-running with no hash changes
// is a no-op (spec.md §4.5 Idempotence; Testable Property 7).
func (p *Pipeline) Run(ctx context.Context, provider Provider, models []types.AlbumReadModel, collection string) (RunResult, error) {
	cfg := provider.Config()
	logger := log.WithProvider(cfg.Name)

	targets, err := p.SelectTargets(models, cfg.Name, cfg.BatchSize*cfg.Concurrency)
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{Considered: len(targets)}
	if len(targets) == 0 {
		return result, nil
	}

	pending := make([]types.AlbumReadModel, 0, len(targets))
	for _, model := range targets {
		hash := ContentHash(model)
		cached, found, err := p.kv.Get(cacheNamespace, cacheKey(cfg.Name, hash))
		if err != nil {
			return result, err
		}
		if !found {
			pending = append(pending, model)
			continue
		}
		vector, err := decodeVector(cached)
		if err != nil {
			return result, err
		}
		if err := p.store(model, cfg.Name, hash, vector, collection); err != nil {
			return result, err
		}
		result.CacheHits++
		metrics.EmbeddingCacheHitTotal.WithLabelValues(cfg.Name, "hit").Inc()
	}
	if len(pending) > 0 {
		metrics.EmbeddingCacheHitTotal.WithLabelValues(cfg.Name, "miss").Add(float64(len(pending)))
	}

	batches := chunk(pending, cfg.BatchSize)
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	sem := make(chan struct{}, cfg.Concurrency)

	for _, batch := range batches {
		wg.Add(1)
		sem <- struct{}{}
		go func(batch []types.AlbumReadModel) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := p.gate(cfg).Wait(ctx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			n, err := p.runBatch(ctx, provider, batch, collection)
			mu.Lock()
			result.Generated += n
			if err != nil {
				result.Failed += len(batch) - n
				if firstErr == nil {
					firstErr = err
				}
			}
			mu.Unlock()
		}(batch)
	}
	wg.Wait()

	status := p.ProviderStatus(cfg.Name)
	healthy := firstErr == nil
	status.Update(health.Result{Healthy: healthy, Message: errString(firstErr), CheckedAt: time.Now()}, health.DefaultConfig())
	gaugeValue := 0.0
	if status.Healthy {
		gaugeValue = 1
	}
	metrics.ProviderHealthGauge.WithLabelValues(cfg.Name).Set(gaugeValue)

	if firstErr != nil {
		logger.Warn().Err(firstErr).Int("generated", result.Generated).Int("failed", result.Failed).Msg("embedding pipeline run completed with failures")
	}
	return result, firstErr
}

func (p *Pipeline) runBatch(ctx context.Context, provider Provider, batch []types.AlbumReadModel, collection string) (int, error) {
	cfg := provider.Config()
	inputs := make([]string, len(batch))
	for i, model := range batch {
		inputs[i] = EmbeddingText(model)
	}

	timer := metrics.NewTimer()
	vectors, err := provider.Generate(ctx, inputs)
	timer.ObserveDurationVec(metrics.ProviderRequestDuration, cfg.Name)
	if err != nil {
		return 0, luterr.Transient(fmt.Sprintf("provider %s generate", cfg.Name), err)
	}
	if len(vectors) != len(batch) {
		return 0, luterr.Fatal(fmt.Sprintf("provider %s returned %d vectors for %d inputs", cfg.Name, len(vectors), len(batch)), nil)
	}

	stored := 0
	for i, model := range batch {
		hash := ContentHash(model)
		if err := p.kv.Set(cacheNamespace, cacheKey(cfg.Name, hash), encodeVector(vectors[i]), cacheTTL); err != nil {
			return stored, err
		}
		if err := p.store(model, cfg.Name, hash, vectors[i], collection); err != nil {
			return stored, err
		}
		stored++
		metrics.EmbeddingsGeneratedTotal.WithLabelValues(cfg.Name).Inc()
	}
	return stored, nil
}

// store records hash against (provider, file_name) and upserts the
// vector into Index, the two durable side effects of a successfully
// resolved target regardless of whether it came from the provider or
// the content-hash cache.
func (p *Pipeline) store(model types.AlbumReadModel, provider, hash string, vector []float32, collection string) error {
	if err := p.kv.Set(contentHashKV, contentHashKey(provider, model.FileName), []byte(hash), 0); err != nil {
		return err
	}
	return p.index.UpsertEmbedding(collection, model.FileName, provider, vector)
}

// JobHandler adapts Run into a pkg/scheduler.JobHandler for provider,
// pulling its candidate models from source on every tick (spec.md §4.5:
// "Scheduler repeats the job at interval").
func (p *Pipeline) JobHandler(provider Provider, source ReadModelSource, collection string) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, _ []byte) error {
		models, err := source.ListAlbums(ctx)
		if err != nil {
			return luterr.Transient("list album read models", err)
		}
		_, err = p.Run(ctx, provider, models, collection)
		return err
	}
}

func chunk(models []types.AlbumReadModel, size int) [][]types.AlbumReadModel {
	if size <= 0 {
		size = 1
	}
	var out [][]types.AlbumReadModel
	for i := 0; i < len(models); i += size {
		end := i + size
		if end > len(models) {
			end = len(models)
		}
		out = append(out, models[i:end])
	}
	return out
}

// encodeVector/decodeVector serialize a vector as little-endian f32
// bytes, matching spec.md §6's wire format for embeddings.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		out[4*i] = byte(bits)
		out[4*i+1] = byte(bits >> 8)
		out[4*i+2] = byte(bits >> 16)
		out[4*i+3] = byte(bits >> 24)
	}
	return out
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, luterr.Fatal("malformed cached embedding vector", nil)
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		bits := uint32(data[4*i]) | uint32(data[4*i+1])<<8 | uint32(data[4*i+2])<<16 | uint32(data[4*i+3])<<24
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
