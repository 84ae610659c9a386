package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

// Handler processes one batch of entries. Its shape doesn't change with
// GroupingStrategy: GroupAll calls it once with every entry in the
// batch, GroupSingle calls it once per entry, GroupByCorrelationID calls
// it once per correlation group.
type Handler func(ctx context.Context, entries []types.EventEntry) error

// Subscription describes one durable subscriber's delivery parameters.
type Subscription struct {
	ID           string
	Topic        types.Topic
	Grouping     types.GroupingStrategy
	Concurrency  int // workers for GroupByCorrelationID; ignored otherwise
	BatchSize    int
	PollInterval time.Duration
	Handler      Handler
}

// Registry owns the set of live subscriptions against a Log and drives
// their delivery loops. Grounded on the teacher's Broker (goroutine per
// loop, mutex-guarded registration), generalized from an in-memory
// broadcast to a durable, cursor-tracked, at-least-once delivery model.
type Registry struct {
	log     *Log
	backoff luterr.Backoff

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewRegistry creates a Registry delivering from log.
func NewRegistry(l *Log) *Registry {
	return &Registry{
		log:     l,
		backoff: luterr.DefaultBackoff(),
		subs:    make(map[string]*Subscription),
	}
}

// Register adds sub. It is an error to register two subscriptions with
// the same ID on the same topic.
func (r *Registry) Register(sub Subscription) error {
	if sub.ID == "" {
		return luterr.Validation("subscription id required", nil)
	}
	if sub.BatchSize <= 0 {
		sub.BatchSize = 50
	}
	if sub.PollInterval <= 0 {
		sub.PollInterval = time.Second
	}
	if sub.Concurrency <= 0 {
		sub.Concurrency = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := subKey(sub.Topic, sub.ID)
	if _, exists := r.subs[key]; exists {
		return luterr.Conflict(fmt.Sprintf("subscription %s already registered on topic %s", sub.ID, sub.Topic), nil)
	}
	r.subs[key] = &sub
	return nil
}

func subKey(topic types.Topic, subscriberID string) string {
	return string(topic) + "/" + subscriberID
}

// Start launches one delivery loop per registered subscription. It
// returns immediately; loops run until ctx is canceled.
func (r *Registry) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		runner := &runner{log: r.log, sub: *sub, backoff: r.backoff}
		go runner.loop(ctx)
	}
}

// runner drives a single subscription's poll-dispatch-advance loop.
// Failed batches are retried from the same cursor position with
// exponential backoff; a subscriber is never auto-disabled by delivery
// failures, only by an explicit SubscriberDisabled cursor status.
type runner struct {
	log     *Log
	sub     Subscription
	backoff luterr.Backoff
}

func (r *runner) loop(ctx context.Context) {
	logger := log.WithSubscriberID(r.sub.ID)
	consecutiveFailures := 0
	delay := r.sub.PollInterval

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		advanced, err := r.tick(ctx)
		if err != nil {
			consecutiveFailures++
			delay = r.backoff.Duration(consecutiveFailures - 1)
			logger.Warn().Err(err).Dur("retry_in", delay).Msg("batch delivery failed, backing off")
		} else {
			if consecutiveFailures > 0 && advanced {
				logger.Info().Msg("batch delivery recovered")
			}
			consecutiveFailures = 0
			delay = r.sub.PollInterval
		}
		timer.Reset(delay)
	}
}

// tick reads one batch, dispatches it, and advances the cursor as far as
// dispatch safely allows. The returned bool reports whether the cursor
// moved at all.
func (r *runner) tick(ctx context.Context) (bool, error) {
	cursor, err := r.log.GetCursor(r.sub.Topic, r.sub.ID)
	if err != nil {
		return false, err
	}
	if cursor.Status == types.SubscriberDisabled {
		return false, nil
	}

	entries, err := r.log.ReadSince(r.sub.Topic, cursor.LastAckedID, r.sub.BatchSize)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	timer := metrics.NewTimer()
	advancedID, dispatchErr := dispatch(ctx, r.sub, entries)
	timer.ObserveDurationVec(metrics.SubscriberDeliveryDuration, string(r.sub.Topic), r.sub.ID)

	moved := false
	if advancedID != "" && advancedID != cursor.LastAckedID {
		cursor.LastAckedID = advancedID
		if err := r.log.PutCursor(cursor); err != nil {
			return false, err
		}
		moved = true
		outcome := "success"
		if dispatchErr != nil {
			outcome = "partial"
		}
		metrics.EventsDeliveredTotal.WithLabelValues(string(r.sub.Topic), r.sub.ID, outcome).Inc()
	}

	if dispatchErr != nil {
		if !moved {
			metrics.EventsDeliveredTotal.WithLabelValues(string(r.sub.Topic), r.sub.ID, "failure").Inc()
		}
		return moved, dispatchErr
	}
	return moved, nil
}

// dispatch fans a batch out to sub.Handler according to sub.Grouping and
// returns the ID of the last entry that can safely be considered
// acknowledged, plus any error encountered.
func dispatch(ctx context.Context, sub Subscription, entries []types.EventEntry) (string, error) {
	switch sub.Grouping {
	case types.GroupSingle:
		return dispatchSingle(ctx, sub.Handler, entries)
	case types.GroupByCorrelationID:
		return dispatchGrouped(ctx, sub.Handler, entries, sub.Concurrency)
	case types.GroupAll, "":
		fallthrough
	default:
		return dispatchAll(ctx, sub.Handler, entries)
	}
}

func dispatchAll(ctx context.Context, handler Handler, entries []types.EventEntry) (string, error) {
	if err := handler(ctx, entries); err != nil {
		return "", err
	}
	return entries[len(entries)-1].ID, nil
}

func dispatchSingle(ctx context.Context, handler Handler, entries []types.EventEntry) (string, error) {
	lastOK := ""
	for _, entry := range entries {
		if err := handler(ctx, []types.EventEntry{entry}); err != nil {
			return lastOK, err
		}
		lastOK = entry.ID
	}
	return lastOK, nil
}

func dispatchGrouped(ctx context.Context, handler Handler, entries []types.EventEntry, concurrency int) (string, error) {
	groups := groupByCorrelationID(entries)

	outcomes := make(map[string]bool, len(groups))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	for key, group := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(key string, group []types.EventEntry) {
			defer wg.Done()
			defer func() { <-sem }()
			err := handler(ctx, group)
			mu.Lock()
			outcomes[key] = err == nil
			mu.Unlock()
		}(key, group)
	}
	wg.Wait()

	lastOK := ""
	var firstErr error
	for _, entry := range entries {
		key := correlationGroupKey(entry)
		if outcomes[key] {
			lastOK = entry.ID
			continue
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("correlation group %q failed", key)
		}
		break
	}
	return lastOK, firstErr
}

// correlationGroupKey returns the grouping key for an entry. Entries
// with no correlation ID are each their own singleton group, since
// GroupByCorrelationID only exists to keep entries that share a
// correlation ID in relative order.
func correlationGroupKey(entry types.EventEntry) string {
	if entry.Payload.CorrelationID == "" {
		return "entry:" + entry.ID
	}
	return "corr:" + entry.Payload.CorrelationID
}

func groupByCorrelationID(entries []types.EventEntry) map[string][]types.EventEntry {
	groups := make(map[string][]types.EventEntry)
	for _, entry := range entries {
		key := correlationGroupKey(entry)
		groups[key] = append(groups[key], entry)
	}
	return groups
}
