package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *State) {
	t.Helper()
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 1000)
	require.NoError(t, err)

	return NewQueue(rdb, state, time.Minute), state
}

func sampleItem(dedupKey string, priority types.Priority) types.QueueItem {
	fn, _ := types.NewFileName(types.FileKindAlbum, "abbey-road")
	return types.QueueItem{
		Key:      types.ItemKey{DeduplicationKey: dedupKey},
		FileName: fn,
		Priority: priority,
	}
}

func TestPushNewItemEnqueues(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	outcome, err := q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.NoError(t, err)
	assert.Equal(t, "new", outcome)

	depths, err := q.Depths()
	require.NoError(t, err)
	assert.Equal(t, 1, depths[types.PriorityStandard])
}

func TestPushHigherPriorityUpgradesInPlace(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.NoError(t, err)

	outcome, err := q.Push(ctx, sampleItem("a", types.PriorityExpress))
	require.NoError(t, err)
	assert.Equal(t, "upgraded", outcome)

	depths, err := q.Depths()
	require.NoError(t, err)
	assert.Equal(t, 0, depths[types.PriorityStandard])
	assert.Equal(t, 1, depths[types.PriorityExpress])
}

func TestPushLowerPriorityIsNoOp(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Push(ctx, sampleItem("a", types.PriorityExpress))
	require.NoError(t, err)

	outcome, err := q.Push(ctx, sampleItem("a", types.PriorityLow))
	require.NoError(t, err)
	assert.Equal(t, "duplicate", outcome)

	depths, err := q.Depths()
	require.NoError(t, err)
	assert.Equal(t, 1, depths[types.PriorityExpress])
	assert.Equal(t, 0, depths[types.PriorityLow])
}

func TestClaimItemReturnsInPriorityThenFIFOOrder(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Push(ctx, sampleItem("low-1", types.PriorityLow))
	require.NoError(t, err)
	_, err = q.Push(ctx, sampleItem("express-1", types.PriorityExpress))
	require.NoError(t, err)
	_, err = q.Push(ctx, sampleItem("express-2", types.PriorityExpress))
	require.NoError(t, err)

	claimed, err := q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "express-1", claimed.Item.Key.DeduplicationKey)

	claimed, err = q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "express-2", claimed.Item.Key.DeduplicationKey)

	claimed, err = q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "low-1", claimed.Item.Key.DeduplicationKey)
}

func TestClaimItemReturnsNoneWhenPaused(t *testing.T) {
	q, state := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.NoError(t, err)
	require.NoError(t, state.SetStatus(ctx, types.CrawlerPaused))

	claimed, err := q.ClaimItem(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestPushRejectsWhenDraining(t *testing.T) {
	q, state := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, state.SetStatus(ctx, types.CrawlerDraining))

	_, err := q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.Error(t, err)
	assert.Equal(t, luterr.ClassConflict, luterr.ClassOf(err))

	depths, err := q.Depths()
	require.NoError(t, err)
	assert.Equal(t, 0, depths[types.PriorityStandard])
}

func TestDeleteItemIsIdempotent(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.NoError(t, err)

	claimed, err := q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, q.DeleteItem(ctx, claimed.Item.Key))
	require.NoError(t, q.DeleteItem(ctx, claimed.Item.Key))
}

func TestExpiredClaimIsReclaimedBeforePendingItems(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	state, err := NewState(ctx, rdb, 1000)
	require.NoError(t, err)
	q := NewQueue(rdb, state, 10*time.Millisecond)

	_, err = q.Push(ctx, sampleItem("a", types.PriorityStandard))
	require.NoError(t, err)

	first, err := q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(30 * time.Millisecond)

	_, err = q.Push(ctx, sampleItem("b", types.PriorityStandard))
	require.NoError(t, err)

	second, err := q.ClaimItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "a", second.Item.Key.DeduplicationKey, "expired claim should be reclaimed before a newer pending item")
}
