package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const (
	dedupBucket   = "crawler:dedup"
	claimsBucket  = "crawler:claims"
	depthsTimeout = 5 * time.Second
)

func queueKey(priority types.Priority) string {
	return fmt.Sprintf("crawler:queue:%d", int(priority))
}

func claimField(key types.ItemKey) string {
	return fmt.Sprintf("%s|%d", key.DeduplicationKey, key.EnqueueTime.UnixNano())
}

// Queue is the four-level priority queue over Redis lists (§4.3), with a
// dedup hash tracking the single unclaimed item per deduplication key and
// a claims hash tracking outstanding leases. Mutating sequences are
// serialized by mu: this process is the queue's sole writer (§5), so an
// in-process mutex stands in for the compare-and-set semantics a
// multi-writer deployment would need real Redis transactions for.
type Queue struct {
	rdb      *redis.Client
	state    *State
	claimTTL time.Duration

	mu sync.Mutex
}

// NewQueue creates a Queue backed by rdb, claiming items for claimTTL
// before they become eligible for reclaim.
func NewQueue(rdb *redis.Client, state *State, claimTTL time.Duration) *Queue {
	return &Queue{rdb: rdb, state: state, claimTTL: claimTTL}
}

// Status implements metrics.QueueSource by delegating to the underlying
// State.
func (q *Queue) Status() types.CrawlerStatus {
	return q.state.Status()
}

// Push enqueues item, applying the dedup-and-upgrade rule from spec.md
// §4.3: if an unclaimed item with the same deduplication key exists, the
// push upgrades its priority (preserving enqueue_time) when the incoming
// priority is higher, or is dropped as a no-op otherwise. It returns one
// of "new", "upgraded", "duplicate" for metrics labeling. Draining rejects
// all new pushes outright (§4.3: claims continue until empty, but no new
// enqueues are accepted).
func (q *Queue) Push(ctx context.Context, item types.QueueItem) (string, error) {
	if q.state.Status() == types.CrawlerDraining {
		return "", luterr.Conflict("crawler is draining, rejecting enqueue", nil)
	}

	dedupKey := item.Key.DeduplicationKey
	if dedupKey == "" {
		dedupKey = item.FileName.String()
	}
	item.Key.DeduplicationKey = dedupKey
	if item.Key.EnqueueTime.IsZero() {
		item.Key.EnqueueTime = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	existing, found, err := q.getDedupLocked(ctx, dedupKey)
	if err != nil {
		return "", err
	}

	if found {
		outcome := "duplicate"
		if item.Priority < existing.Priority {
			item.Key.EnqueueTime = existing.Key.EnqueueTime
			if err := q.moveLocked(ctx, existing, item); err != nil {
				return "", err
			}
			outcome = "upgraded"
		}
		metrics.ItemsEnqueuedTotal.WithLabelValues(item.Priority.String(), outcome).Inc()
		return outcome, nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return "", luterr.Validation("marshal queue item", err)
	}
	if err := q.rdb.RPush(ctx, queueKey(item.Priority), data).Err(); err != nil {
		return "", luterr.Transient("enqueue item", err)
	}
	if err := q.rdb.HSet(ctx, dedupBucket, dedupKey, data).Err(); err != nil {
		return "", luterr.Transient("record dedup entry", err)
	}

	metrics.ItemsEnqueuedTotal.WithLabelValues(item.Priority.String(), "new").Inc()
	return "new", nil
}

func (q *Queue) getDedupLocked(ctx context.Context, dedupKey string) (types.QueueItem, bool, error) {
	raw, err := q.rdb.HGet(ctx, dedupBucket, dedupKey).Result()
	if err == redis.Nil {
		return types.QueueItem{}, false, nil
	}
	if err != nil {
		return types.QueueItem{}, false, luterr.Transient("read dedup entry", err)
	}
	var existing types.QueueItem
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return types.QueueItem{}, false, luterr.Fatal("decode dedup entry", err)
	}
	return existing, true, nil
}

func (q *Queue) moveLocked(ctx context.Context, from, to types.QueueItem) error {
	oldData, err := json.Marshal(from)
	if err != nil {
		return luterr.Validation("marshal previous queue item", err)
	}
	if err := q.rdb.LRem(ctx, queueKey(from.Priority), 1, oldData).Err(); err != nil {
		return luterr.Transient("remove previous queue entry", err)
	}

	newData, err := json.Marshal(to)
	if err != nil {
		return luterr.Validation("marshal queue item", err)
	}
	if err := q.rdb.RPush(ctx, queueKey(to.Priority), newData).Err(); err != nil {
		return luterr.Transient("enqueue upgraded item", err)
	}
	if err := q.rdb.HSet(ctx, dedupBucket, to.Key.DeduplicationKey, newData).Err(); err != nil {
		return luterr.Transient("update dedup entry", err)
	}
	return nil
}

// ClaimItem claims the highest-priority, oldest eligible item. It returns
// (nil, nil) if the crawler is Paused or Throttled, or if no item is
// eligible. Expired claims are swept back into their priority bucket
// before any unclaimed item is considered (Testable Property 4, 5).
func (q *Queue) ClaimItem(ctx context.Context) (*types.ClaimedItem, error) {
	status := q.state.Status()
	if status == types.CrawlerPaused || status == types.CrawlerThrottled {
		return nil, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.sweepExpiredClaimsLocked(ctx); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to sweep expired crawler claims")
	}

	for _, priority := range types.Priorities {
		raw, err := q.rdb.LPop(ctx, queueKey(priority)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, luterr.Transient("claim item", err)
		}

		var item types.QueueItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, luterr.Fatal("decode claimed item", err)
		}

		if err := q.rdb.HDel(ctx, dedupBucket, item.Key.DeduplicationKey).Err(); err != nil {
			return nil, luterr.Transient("clear dedup entry on claim", err)
		}

		claimed := types.ClaimedItem{
			Item:      item,
			ClaimTTL:  int64(q.claimTTL.Seconds()),
			ClaimedAt: time.Now(),
		}
		data, err := json.Marshal(claimed)
		if err != nil {
			return nil, luterr.Validation("marshal claimed item", err)
		}
		if err := q.rdb.HSet(ctx, claimsBucket, claimField(item.Key), data).Err(); err != nil {
			return nil, luterr.Transient("record claim", err)
		}

		metrics.ItemsClaimedTotal.WithLabelValues(item.Priority.String()).Inc()
		return &claimed, nil
	}

	return nil, nil
}

// DeleteItem removes the item identified by key from both the claimed
// and unclaimed stores. Idempotent: deleting an already-deleted key is a
// no-op.
func (q *Queue) DeleteItem(ctx context.Context, key types.ItemKey) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.rdb.HDel(ctx, claimsBucket, claimField(key)).Err(); err != nil {
		return luterr.Transient("delete claim", err)
	}

	existing, found, err := q.getDedupLocked(ctx, key.DeduplicationKey)
	if err != nil {
		return err
	}
	if !found || !existing.Key.EnqueueTime.Equal(key.EnqueueTime) {
		return nil
	}

	data, err := json.Marshal(existing)
	if err != nil {
		return luterr.Validation("marshal queue item", err)
	}
	if err := q.rdb.LRem(ctx, queueKey(existing.Priority), 1, data).Err(); err != nil {
		return luterr.Transient("remove queue entry", err)
	}
	if err := q.rdb.HDel(ctx, dedupBucket, key.DeduplicationKey).Err(); err != nil {
		return luterr.Transient("clear dedup entry", err)
	}
	return nil
}

// sweepExpiredClaimsLocked requeues claims whose TTL has elapsed, placing
// them at the front of their priority bucket so they are reclaimed before
// genuinely pending items (spec.md §4.3, Testable Property 5). Caller
// must hold q.mu.
func (q *Queue) sweepExpiredClaimsLocked(ctx context.Context) error {
	claims, err := q.rdb.HGetAll(ctx, claimsBucket).Result()
	if err != nil {
		return luterr.Transient("scan claims", err)
	}

	now := time.Now()
	for field, raw := range claims {
		var claimed types.ClaimedItem
		if err := json.Unmarshal([]byte(raw), &claimed); err != nil {
			log.Logger.Error().Err(err).Str("claim_field", field).Msg("dropping corrupt claim entry")
			_ = q.rdb.HDel(ctx, claimsBucket, field).Err()
			continue
		}
		if now.Sub(claimed.ClaimedAt) < time.Duration(claimed.ClaimTTL)*time.Second {
			continue
		}

		if err := q.rdb.HDel(ctx, claimsBucket, field).Err(); err != nil {
			return luterr.Transient("clear expired claim", err)
		}
		data, err := json.Marshal(claimed.Item)
		if err != nil {
			return luterr.Validation("marshal expired claim item", err)
		}
		if err := q.rdb.LPush(ctx, queueKey(claimed.Item.Priority), data).Err(); err != nil {
			return luterr.Transient("requeue expired claim", err)
		}
		if err := q.rdb.HSet(ctx, dedupBucket, claimed.Item.Key.DeduplicationKey, data).Err(); err != nil {
			return luterr.Transient("restore dedup entry for expired claim", err)
		}
		metrics.ClaimsExpiredTotal.WithLabelValues(claimed.Item.Priority.String()).Inc()
	}
	return nil
}

// Depths reports the number of pending (unclaimed) items per priority.
// Implements metrics.QueueSource.
func (q *Queue) Depths() (map[types.Priority]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), depthsTimeout)
	defer cancel()

	depths := make(map[types.Priority]int, len(types.Priorities))
	for _, priority := range types.Priorities {
		n, err := q.rdb.LLen(ctx, queueKey(priority)).Result()
		if err != nil {
			return nil, luterr.Transient("read queue depth", err)
		}
		depths[priority] = int(n)
	}
	return depths, nil
}
