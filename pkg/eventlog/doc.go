// Package eventlog implements EventCore: a durable, per-topic,
// append-only event log with independent subscriber cursors.
//
// # Shape
//
//	┌──────────────────────── eventlog ─────────────────────────┐
//	│  Log                                                        │
//	│    Append(topic, payload) → EventEntry{ID, SavedAt, ...}    │
//	│    ReadSince(topic, afterID, limit) → []EventEntry          │
//	│    GetCursor/PutCursor(topic, subscriberID)                 │
//	│                                                              │
//	│  Registry                                                   │
//	│    Register(Subscription{Topic, Grouping, Handler, ...})    │
//	│    Start(ctx) → one poll loop per subscription               │
//	└─────────────────────────────────────────────────────────────┘
//
// Entry IDs are "<unix-ms>-<seq>" strings, monotonically increasing and
// lexically sortable, so ReadSince can resume a cursor with a plain
// bbolt key-range scan rather than needing a secondary index.
//
// # Delivery
//
// Each subscription runs its own loop: read a batch after the cursor,
// dispatch it according to GroupingStrategy, advance the cursor only as
// far as the dispatch outcome allows, and retry on failure with
// exponential backoff capped at 30s. A subscriber that keeps failing is
// never auto-disabled — SubscriberDisabled is only ever set by an
// operator action, since a transient downstream outage shouldn't cause
// events to be silently dropped once the subscriber's own code forgets
// to re-enable itself.
//
// GroupByCorrelationID fans a batch out across a bounded worker pool,
// one goroutine per correlation group, and still advances the cursor
// only through the last entry that precedes the first failed group in
// ID order — concurrency doesn't weaken the at-least-once guarantee.
package eventlog
