package embed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// Provider generates embedding vectors for a batch of text inputs. An
// implementation wraps one third-party embedding API (or a local model);
// Generate must return vectors in 1-1 correspondence with inputs, and
// spec.md §4.5 requires the whole batch to fail together on any partial
// failure rather than returning a partial result.
type Provider interface {
	Config() types.ProviderConfig
	Generate(ctx context.Context, inputs []string) ([][]float32, error)
}

// RateGate is a token-bucket gate with jitter bounding how often a
// provider's batches are dispatched, grounded on spec.md §4.5 step 3
// ("respecting provider interval, a token-bucket gate with jitter").
// Unlike pkg/crawler's window counter (a different rate limit for a
// different call site, per DESIGN.md), this gate paces a single
// in-process caller rather than counting requests across a shared
// window, so a simple "earliest next allowed instant" is sufficient.
type RateGate struct {
	interval time.Duration
	jitter   float64

	mu   sync.Mutex
	next time.Time
}

// NewRateGate creates a gate that allows at most one passage per
// interval, staggered by up to jitterFraction of the interval so that
// many providers on the same interval don't all wake in lockstep.
func NewRateGate(interval time.Duration, jitterFraction float64) *RateGate {
	return &RateGate{interval: interval, jitter: jitterFraction}
}

// Wait blocks until the gate admits the caller, or ctx is canceled.
func (g *RateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	now := time.Now()
	wait := g.next.Sub(now)
	if wait < 0 {
		wait = 0
	}
	jitter := time.Duration(rand.Float64() * g.jitter * float64(g.interval))
	g.next = now.Add(wait + g.interval + jitter)
	g.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DeterministicProvider is a dependency-free Provider that hashes its
// input text into a fixed-dimension unit vector. Grounded on
// other_examples' manifold RAG service, which keeps an equivalent
// deterministic embedder on hand for tests and for operating without a
// configured third-party API key.
type DeterministicProvider struct {
	cfg types.ProviderConfig
}

// NewDeterministicProvider creates a DeterministicProvider under name,
// producing dims-dimensional vectors.
func NewDeterministicProvider(name string, dims, batchSize, concurrency int, interval time.Duration) *DeterministicProvider {
	return &DeterministicProvider{cfg: types.ProviderConfig{
		Name:        name,
		Dimensions:  dims,
		BatchSize:   batchSize,
		Concurrency: concurrency,
		Interval:    interval,
		JobName:     fmt.Sprintf("embed:%s", name),
	}}
}

func (p *DeterministicProvider) Config() types.ProviderConfig { return p.cfg }

func (p *DeterministicProvider) Generate(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		out[i] = deterministicVector(text, p.cfg.Dimensions)
	}
	return out, nil
}

func deterministicVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	var h uint64 = 1469598103934665603 // FNV offset basis
	for i := 0; i < len(text); i++ {
		h ^= uint64(text[i])
		h *= 1099511628211 // FNV prime
		v[i%dims] += float32(h%1000) / 1000
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	inv := float32(1) / sqrt32(norm)
	for i := range v {
		v[i] *= inv
	}
	return v
}

func sqrt32(x float32) float32 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}
