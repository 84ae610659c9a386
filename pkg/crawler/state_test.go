package crawler

import (
	"context"
	"testing"

	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateDefaultsToRunning(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 10)
	require.NoError(t, err)
	assert.Equal(t, types.CrawlerRunning, state.Status())
}

func TestSetStatusAllowsOperatorTransitions(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 10)
	require.NoError(t, err)

	require.NoError(t, state.SetStatus(ctx, types.CrawlerPaused))
	assert.Equal(t, types.CrawlerPaused, state.Status())

	require.NoError(t, state.SetStatus(ctx, types.CrawlerRunning))
	assert.Equal(t, types.CrawlerRunning, state.Status())
}

func TestSetStatusRejectsDirectThrottleTransitions(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 10)
	require.NoError(t, err)

	err = state.SetStatus(ctx, types.CrawlerThrottled)
	assert.Error(t, err)
	assert.Equal(t, types.CrawlerRunning, state.Status())
}

func TestSetStatusRejectsDrainToPaused(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 10)
	require.NoError(t, err)
	require.NoError(t, state.SetStatus(ctx, types.CrawlerDraining))

	err = state.SetStatus(ctx, types.CrawlerPaused)
	assert.Error(t, err)
	assert.Equal(t, types.CrawlerDraining, state.Status())
}

func TestRecordFetchThrottlesAtThreshold(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 3)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, state.RecordFetch(ctx))
		assert.Equal(t, types.CrawlerRunning, state.Status())
	}

	require.NoError(t, state.RecordFetch(ctx))
	assert.Equal(t, types.CrawlerThrottled, state.Status())
}

func TestResetWindowClearsThrottle(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 1)
	require.NoError(t, err)

	require.NoError(t, state.RecordFetch(ctx))
	require.NoError(t, state.RecordFetch(ctx))
	require.Equal(t, types.CrawlerThrottled, state.Status())

	require.NoError(t, state.ResetWindow(ctx))
	assert.Equal(t, types.CrawlerRunning, state.Status())

	require.NoError(t, state.RecordFetch(ctx))
	assert.Equal(t, types.CrawlerRunning, state.Status())
}
