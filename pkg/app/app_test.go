package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shedrachokonofua/lute-sub001/pkg/config"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/require"
)

// requireLocalRedis skips the test unless a real Redis is reachable,
// matching pkg/crawler's convention for tests that need a live backing
// store rather than mocking the client.
func requireLocalRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379", DB: 14})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skip("no local redis reachable on 127.0.0.1:6379, skipping")
	}
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})
	return rdb.Options().Addr
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	addr := requireLocalRedis(t)

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Redis.Addr = addr
	cfg.Redis.DB = 14

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Stop() })
	return a
}

func TestPutFileDispatchesThroughToReadModel(t *testing.T) {
	a := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.Start(ctx)

	fileName, err := types.NewFileName(types.FileKindAlbum, "in-rainbows")
	require.NoError(t, err)

	doc := albumDocument{Name: "In Rainbows", Artists: []string{"Radiohead"}, Genres: []string{"art rock"}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = a.PutFile(fileName, data, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		models, err := a.readModels.ListAlbums(context.Background())
		return err == nil && len(models) == 1 && models[0].Name == "In Rainbows"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetFileReturnsStoredContent(t *testing.T) {
	a := newTestApp(t)

	fileName, err := types.NewFileName(types.FileKindArtist, "radiohead")
	require.NoError(t, err)

	_, err = a.PutFile(fileName, []byte("hello"), "")
	require.NoError(t, err)

	data, err := a.GetFile(context.Background(), fileName)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}
