package embed

import (
	"context"
	"testing"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/index"
	"github.com/shedrachokonofua/lute-sub001/pkg/kv"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(kv.Open(db), index.Open(db))
}

func sampleModel(name string) types.AlbumReadModel {
	fileName, _ := types.NewFileName(types.FileKindAlbum, name)
	return types.AlbumReadModel{
		FileName:    fileName,
		Name:        name,
		ArtistNames: []string{"Artist A"},
		Genres:      []string{"Jazz"},
	}
}

// countingProvider records how many times Generate was called, to assert
// cache-hit idempotence (spec.md Testable Property 7 / Scenario 5).
type countingProvider struct {
	*DeterministicProvider
	calls int
}

func newCountingProvider() *countingProvider {
	return &countingProvider{DeterministicProvider: NewDeterministicProvider("test", 8, 10, 2, time.Millisecond)}
}

func (p *countingProvider) Generate(ctx context.Context, inputs []string) ([][]float32, error) {
	p.calls++
	return p.DeterministicProvider.Generate(ctx, inputs)
}

func TestContentHashStableUnderFieldOrder(t *testing.T) {
	m1 := sampleModel("abbey-road")
	m1.Genres = []string{"Rock", "Pop"}
	m2 := m1
	m2.Genres = []string{"Pop", "Rock"}
	assert.Equal(t, ContentHash(m1), ContentHash(m2))
}

func TestRunGeneratesThenSkipsUnchangedOnRerun(t *testing.T) {
	p := newTestPipeline(t)
	provider := newCountingProvider()
	models := []types.AlbumReadModel{sampleModel("abbey-road")}

	result, err := p.Run(context.Background(), provider, models, AlbumCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, provider.calls)

	result, err = p.Run(context.Background(), provider, models, AlbumCollection)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Considered)
	assert.Equal(t, 1, provider.calls, "unchanged content hash must not call the provider again")
}

func TestRunReusesCacheAfterIndexDeletion(t *testing.T) {
	p := newTestPipeline(t)
	provider := newCountingProvider()
	model := sampleModel("abbey-road")

	_, err := p.Run(context.Background(), provider, []types.AlbumReadModel{model}, AlbumCollection)
	require.NoError(t, err)
	require.Equal(t, 1, provider.calls)

	// Delete the Index embedding, and evict the content-hash marker too:
	// SelectTargets reads only that marker, so the target is reselected
	// only once it is gone. The KV vector cache stays populated under its
	// content hash (spec.md Scenario 5: provider not called again, Index
	// repopulated from cache).
	require.NoError(t, p.index.DeleteEmbedding(AlbumCollection, model.FileName, provider.Config().Name))
	require.NoError(t, p.kv.Delete(contentHashKV, contentHashKey(provider.Config().Name, model.FileName)))

	result, err := p.Run(context.Background(), provider, []types.AlbumReadModel{model}, AlbumCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CacheHits)
	assert.Equal(t, 1, provider.calls, "cache hit must not call the provider")
}

func TestContentHashChangeTriggersRegeneration(t *testing.T) {
	p := newTestPipeline(t)
	provider := newCountingProvider()
	model := sampleModel("abbey-road")

	_, err := p.Run(context.Background(), provider, []types.AlbumReadModel{model}, AlbumCollection)
	require.NoError(t, err)

	model.Name = "Abbey Road (Remastered)"
	result, err := p.Run(context.Background(), provider, []types.AlbumReadModel{model}, AlbumCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 2, provider.calls)
}

func TestSelectTargetsRespectsLimit(t *testing.T) {
	p := newTestPipeline(t)
	models := []types.AlbumReadModel{sampleModel("a"), sampleModel("b"), sampleModel("c")}

	targets, err := p.SelectTargets(models, "test", 2)
	require.NoError(t, err)
	assert.Len(t, targets, 2)
}

func TestVectorByteRoundTrip(t *testing.T) {
	v := []float32{0.5, -0.25, 1, 0}
	decoded, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
}
