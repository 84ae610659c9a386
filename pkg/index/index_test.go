package index

import (
	"testing"

	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAlbum struct {
	Name string `json:"name"`
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Open(db)
}

func TestUpsertAndGetRoundTrips(t *testing.T) {
	ix := newTestIndex(t)

	err := ix.Upsert("albums", "album:abbey-road", testAlbum{Name: "Abbey Road"}, map[string]any{
		"text":   "Abbey Road",
		"genres": []string{"rock", "pop"},
	})
	require.NoError(t, err)

	var out testAlbum
	found, err := ix.Get("albums", "album:abbey-road", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Abbey Road", out.Name)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	ix := newTestIndex(t)

	found, err := ix.Get("albums", "does-not-exist", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchFiltersByTagAndRange(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Upsert("albums", "a", testAlbum{Name: "A"}, map[string]any{
		"genres": []string{"rock"}, "rating": 4.5,
	}))
	require.NoError(t, ix.Upsert("albums", "b", testAlbum{Name: "B"}, map[string]any{
		"genres": []string{"jazz"}, "rating": 4.8,
	}))
	require.NoError(t, ix.Upsert("albums", "c", testAlbum{Name: "C"}, map[string]any{
		"genres": []string{"rock"}, "rating": 2.0,
	}))

	min := 3.0
	results, err := ix.Search("albums", Filter{
		Tags:   map[string][]string{"genres": {"rock"}},
		Ranges: map[string]Range{"rating": {Min: &min}},
	}, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Key)
}

func TestSearchPagination(t *testing.T) {
	ix := newTestIndex(t)
	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, ix.Upsert("albums", key, testAlbum{Name: key}, map[string]any{}))
	}

	page1, err := ix.Search("albums", Filter{}, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := ix.Search("albums", Filter{}, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	page3, err := ix.Search("albums", Filter{}, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestDeleteCascadesToEmbeddings(t *testing.T) {
	ix := newTestIndex(t)
	fn, err := newFileName(t)
	require.NoError(t, err)

	require.NoError(t, ix.Upsert("albums", fn.String(), testAlbum{Name: "A"}, map[string]any{}))
	require.NoError(t, ix.UpsertEmbedding("albums", fn, "openai", []float32{1, 0, 0}))

	require.NoError(t, ix.Delete("albums", fn.String()))

	found, _, err := ix.getDocument("albums", fn.String())
	require.NoError(t, err)
	assert.False(t, found)

	results, err := ix.VectorSearch("albums", "openai", []float32{1, 0, 0}, Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
