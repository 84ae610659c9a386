package crawler

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

const (
	statusKey      = "crawler:status"
	windowCountKey = "crawler:window:count"
)

// State owns the crawler's status state machine and the rate-limiter
// window counter, both well-known Redis keys per spec.md §6. Status is
// cached in-process after every write so Status() can satisfy
// metrics.QueueSource without a round trip per collection tick.
type State struct {
	rdb                  *redis.Client
	maxRequestsPerWindow int64

	mu     sync.Mutex
	cached types.CrawlerStatus
}

// NewState loads (or initializes) the crawler's status from Redis.
func NewState(ctx context.Context, rdb *redis.Client, maxRequestsPerWindow int64) (*State, error) {
	s := &State{rdb: rdb, maxRequestsPerWindow: maxRequestsPerWindow}

	raw, err := rdb.Get(ctx, statusKey).Result()
	switch {
	case err == redis.Nil:
		s.cached = types.CrawlerRunning
		if err := rdb.Set(ctx, statusKey, string(s.cached), 0).Err(); err != nil {
			return nil, luterr.Transient("initialize crawler status", err)
		}
	case err != nil:
		return nil, luterr.Transient("load crawler status", err)
	default:
		s.cached = types.CrawlerStatus(raw)
	}

	s.publishGauge()
	return s, nil
}

// Status returns the crawler's current status. Implements part of
// metrics.QueueSource.
func (s *State) Status() types.CrawlerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

// SetStatus applies an operator-driven transition. Throttled is never a
// valid operator target or source here: it is entered only by RecordFetch
// exceeding the window threshold and cleared only by ResetWindow, per
// spec.md §4.3's state diagram.
func (s *State) SetStatus(ctx context.Context, target types.CrawlerStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !operatorTransitionAllowed(s.cached, target) {
		return luterr.Validation(fmt.Sprintf("cannot transition crawler status from %s to %s", s.cached, target), nil)
	}
	return s.setStatusLocked(ctx, target)
}

func operatorTransitionAllowed(from, to types.CrawlerStatus) bool {
	switch from {
	case types.CrawlerRunning:
		return to == types.CrawlerPaused || to == types.CrawlerDraining
	case types.CrawlerPaused, types.CrawlerDraining:
		return to == types.CrawlerRunning
	default:
		return false
	}
}

// RecordFetch increments the request window counter. If the counter
// exceeds maxRequestsPerWindow, the crawler transitions to Throttled.
func (s *State) RecordFetch(ctx context.Context) error {
	count, err := s.rdb.Incr(ctx, windowCountKey).Result()
	if err != nil {
		return luterr.Transient("increment request window counter", err)
	}
	if count <= s.maxRequestsPerWindow {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != types.CrawlerRunning {
		return nil
	}
	return s.setStatusLocked(ctx, types.CrawlerThrottled)
}

// WindowCount reads the current request window counter, for operator
// monitoring (CrawlerService.GetMonitor). A missing counter reads as 0.
func (s *State) WindowCount(ctx context.Context) (int64, error) {
	count, err := s.rdb.Get(ctx, windowCountKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, luterr.Transient("read request window counter", err)
	}
	return count, nil
}

// ResetWindow clears the request window counter. If the crawler is
// currently Throttled, it transitions back to Running. Intended to be
// driven by the scheduled ResetCrawlerRequestWindow job.
func (s *State) ResetWindow(ctx context.Context) error {
	if err := s.rdb.Del(ctx, windowCountKey).Err(); err != nil {
		return luterr.Transient("reset request window counter", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != types.CrawlerThrottled {
		return nil
	}
	return s.setStatusLocked(ctx, types.CrawlerRunning)
}

// setStatusLocked persists status and updates the cache and gauge. Caller
// must hold s.mu.
func (s *State) setStatusLocked(ctx context.Context, status types.CrawlerStatus) error {
	if err := s.rdb.Set(ctx, statusKey, string(status), 0).Err(); err != nil {
		return luterr.Transient("persist crawler status", err)
	}
	s.cached = status
	s.publishGauge()
	return nil
}

func (s *State) publishGauge() {
	for _, candidate := range []types.CrawlerStatus{types.CrawlerRunning, types.CrawlerPaused, types.CrawlerDraining, types.CrawlerThrottled} {
		value := 0.0
		if candidate == s.cached {
			value = 1
		}
		metrics.CrawlerStatusGauge.WithLabelValues(string(candidate)).Set(value)
	}
}
