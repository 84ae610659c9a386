package eventlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shedrachokonofua/lute-sub001/pkg/luterr"
	"github.com/shedrachokonofua/lute-sub001/pkg/metrics"
	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
)

func entriesBucket(topic types.Topic) string {
	return "eventlog:entries:" + string(topic)
}

func cursorsBucket(topic types.Topic) string {
	return "eventlog:cursors:" + string(topic)
}

// Log is the durable, append-only event store, one bucket pair per
// topic. It is the persistence half of EventCore; Registry drives
// delivery on top of it.
type Log struct {
	db     *storage.DB
	seq    *idSequencer
	topics []types.Topic

	// appendMu holds id assignment and the bbolt write together, so
	// entries are persisted in id order.
	appendMu sync.Mutex
}

// Open prepares the buckets for every known topic and returns a Log
// backed by db. Topics are a closed, compile-time-known set (see
// pkg/types), so buckets can be created eagerly rather than on first use.
func Open(db *storage.DB, topics []types.Topic) (*Log, error) {
	buckets := make([]string, 0, len(topics)*2)
	for _, topic := range topics {
		buckets = append(buckets, entriesBucket(topic), cursorsBucket(topic))
	}
	if err := db.EnsureBuckets(buckets...); err != nil {
		return nil, fmt.Errorf("eventlog: ensure buckets: %w", err)
	}
	return &Log{db: db, seq: newIDSequencer(), topics: topics}, nil
}

// Topics returns the topics this Log was opened with.
func (l *Log) Topics() []types.Topic {
	return append([]types.Topic(nil), l.topics...)
}

// Append persists payload as a new entry on topic and returns the
// assigned entry, including its monotonic ID.
func (l *Log) Append(topic types.Topic, payload types.EventPayload) (types.EventEntry, error) {
	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	entry := types.EventEntry{
		ID:      l.seq.next(),
		Topic:   topic,
		Payload: payload,
		SavedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return types.EventEntry{}, luterr.Validation("marshal event entry", err)
	}

	if err := l.db.Put(entriesBucket(topic), []byte(entry.ID), data); err != nil {
		return types.EventEntry{}, luterr.Transient("append event entry", err)
	}

	metrics.EventsAppendedTotal.WithLabelValues(string(topic)).Inc()
	return entry, nil
}

// ReadSince returns up to limit entries on topic with ID strictly
// greater than afterID, in ID order. An empty afterID reads from the
// beginning of the topic.
func (l *Log) ReadSince(topic types.Topic, afterID string, limit int) ([]types.EventEntry, error) {
	raw, err := l.db.ScanAfter(entriesBucket(topic), []byte(afterID), limit)
	if err != nil {
		return nil, luterr.Transient("scan event entries", err)
	}

	entries := make([]types.EventEntry, 0, len(raw))
	for _, data := range raw {
		var entry types.EventEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, luterr.Fatal("decode event entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetCursor returns the subscriber's cursor on topic, creating a fresh
// enabled cursor at the beginning of the topic if one doesn't exist yet.
func (l *Log) GetCursor(topic types.Topic, subscriberID string) (types.SubscriberCursor, error) {
	data, err := l.db.Get(cursorsBucket(topic), []byte(subscriberID))
	if err != nil {
		return types.SubscriberCursor{}, luterr.Transient("read cursor", err)
	}
	if data == nil {
		return types.SubscriberCursor{
			SubscriberID: subscriberID,
			Topic:        topic,
			LastAckedID:  "",
			Status:       types.SubscriberEnabled,
		}, nil
	}
	var cursor types.SubscriberCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return types.SubscriberCursor{}, luterr.Fatal("decode cursor", err)
	}
	return cursor, nil
}

// SetCursor advances the subscriber's cursor on topic to id, rejecting
// any move that would regress it (spec.md §4.1 set_cursor, Testable
// Property / Scenario 3: cursor non-regression). Idempotent: setting the
// cursor to its current value is a no-op, not an error. This is the
// entry point for externally driven cursor moves (the RPC layer's
// EventService.Stream ack); the delivery loop advances cursors directly
// via PutCursor since it only ever computes already-monotonic tail IDs.
func (l *Log) SetCursor(topic types.Topic, subscriberID, id string) (types.SubscriberCursor, error) {
	cursor, err := l.GetCursor(topic, subscriberID)
	if err != nil {
		return types.SubscriberCursor{}, err
	}
	if compareIDs(id, cursor.LastAckedID) <= 0 {
		return cursor, nil
	}
	cursor.LastAckedID = id
	if err := l.PutCursor(cursor); err != nil {
		return types.SubscriberCursor{}, err
	}
	return cursor, nil
}

// SetSubscriberStatus toggles a subscriber's Enabled/Disabled status
// without touching its cursor position (spec.md §4.1 set_status).
func (l *Log) SetSubscriberStatus(topic types.Topic, subscriberID string, status types.SubscriberStatus) (types.SubscriberCursor, error) {
	cursor, err := l.GetCursor(topic, subscriberID)
	if err != nil {
		return types.SubscriberCursor{}, err
	}
	cursor.Status = status
	if err := l.PutCursor(cursor); err != nil {
		return types.SubscriberCursor{}, err
	}
	return cursor, nil
}

// PutCursor persists cursor, overwriting any existing value. Callers
// advance LastAckedID only after a batch's handler has returned
// successfully, so a cursor never points past an entry that hasn't been
// durably acknowledged.
func (l *Log) PutCursor(cursor types.SubscriberCursor) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return luterr.Validation("marshal cursor", err)
	}
	if err := l.db.Put(cursorsBucket(cursor.Topic), []byte(cursor.SubscriberID), data); err != nil {
		return luterr.Transient("persist cursor", err)
	}
	return nil
}

// CursorLags reports, for every subscriber registered against topic, how
// many entries remain unconsumed past its cursor. Used by the metrics
// collector and by operational tooling, not by the delivery loop.
func (l *Log) CursorLags(topic types.Topic) (map[string]int64, error) {
	lags := make(map[string]int64)
	err := l.db.ForEach(cursorsBucket(topic), func(key, value []byte) error {
		var cursor types.SubscriberCursor
		if err := json.Unmarshal(value, &cursor); err != nil {
			return err
		}
		lag, err := l.db.CountAfter(entriesBucket(topic), []byte(cursor.LastAckedID))
		if err != nil {
			return err
		}
		lags[cursor.SubscriberID] = lag
		return nil
	})
	if err != nil {
		return nil, luterr.Transient("compute cursor lags", err)
	}
	return lags, nil
}
