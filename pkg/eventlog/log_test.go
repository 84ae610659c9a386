package eventlog

import (
	"testing"

	"github.com/shedrachokonofua/lute-sub001/pkg/storage"
	"github.com/shedrachokonofua/lute-sub001/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	l, err := Open(db, []types.Topic{types.TopicFile, types.TopicParser})
	require.NoError(t, err)
	return l
}

func samplePayload(kind types.EventKind) types.EventPayload {
	return types.EventPayload{
		Event: types.Event{Kind: kind},
	}
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	l := newTestLog(t)

	e1, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	e2, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	e3, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)

	assert.Less(t, e1.ID, e2.ID)
	assert.Less(t, e2.ID, e3.ID)
}

func TestReadSinceRoundTrip(t *testing.T) {
	l := newTestLog(t)

	written := make([]types.EventEntry, 0, 5)
	for i := 0; i < 5; i++ {
		e, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
		require.NoError(t, err)
		written = append(written, e)
	}

	read, err := l.ReadSince(types.TopicFile, "", 100)
	require.NoError(t, err)
	require.Len(t, read, 5)
	for i := range written {
		assert.Equal(t, written[i].ID, read[i].ID)
	}
}

func TestReadSinceRespectsCursor(t *testing.T) {
	l := newTestLog(t)

	var entries []types.EventEntry
	for i := 0; i < 5; i++ {
		e, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
		require.NoError(t, err)
		entries = append(entries, e)
	}

	read, err := l.ReadSince(types.TopicFile, entries[1].ID, 100)
	require.NoError(t, err)
	require.Len(t, read, 3)
	assert.Equal(t, entries[2].ID, read[0].ID)
}

func TestReadSinceRespectsLimit(t *testing.T) {
	l := newTestLog(t)
	for i := 0; i < 10; i++ {
		_, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
		require.NoError(t, err)
	}

	read, err := l.ReadSince(types.TopicFile, "", 3)
	require.NoError(t, err)
	assert.Len(t, read, 3)
}

func TestCursorDefaultsToEnabledAtStart(t *testing.T) {
	l := newTestLog(t)

	cursor, err := l.GetCursor(types.TopicFile, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriberEnabled, cursor.Status)
	assert.Equal(t, "", cursor.LastAckedID)
}

func TestCursorNeverRegresses(t *testing.T) {
	l := newTestLog(t)

	e1, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	e2, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)

	cursor, err := l.GetCursor(types.TopicFile, "sub-1")
	require.NoError(t, err)
	cursor.LastAckedID = e2.ID
	require.NoError(t, l.PutCursor(cursor))

	_, err = l.SetCursor(types.TopicFile, "sub-1", e1.ID)
	require.NoError(t, err)

	reread, err := l.GetCursor(types.TopicFile, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, e2.ID, reread.LastAckedID)
	assert.NotEqual(t, e1.ID, reread.LastAckedID)
}

func TestSetCursorRejectsRegression(t *testing.T) {
	l := newTestLog(t)

	e1, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	e2, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	_, err = l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)

	_, err = l.SetCursor(types.TopicFile, "sub-1", e2.ID)
	require.NoError(t, err)

	cursor, err := l.SetCursor(types.TopicFile, "sub-1", e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e2.ID, cursor.LastAckedID)

	reread, err := l.GetCursor(types.TopicFile, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, e2.ID, reread.LastAckedID)
}

func TestSetSubscriberStatusPreservesCursor(t *testing.T) {
	l := newTestLog(t)

	e1, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)
	_, err = l.SetCursor(types.TopicFile, "sub-1", e1.ID)
	require.NoError(t, err)

	cursor, err := l.SetSubscriberStatus(types.TopicFile, "sub-1", types.SubscriberDisabled)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriberDisabled, cursor.Status)
	assert.Equal(t, e1.ID, cursor.LastAckedID)
}

func TestCursorLagsReflectsUnconsumedEntries(t *testing.T) {
	l := newTestLog(t)

	var entries []types.EventEntry
	for i := 0; i < 4; i++ {
		e, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
		require.NoError(t, err)
		entries = append(entries, e)
	}

	cursor, err := l.GetCursor(types.TopicFile, "sub-1")
	require.NoError(t, err)
	cursor.LastAckedID = entries[1].ID
	require.NoError(t, l.PutCursor(cursor))

	lags, err := l.CursorLags(types.TopicFile)
	require.NoError(t, err)
	assert.Equal(t, int64(2), lags["sub-1"])
}

func TestTopicsAreIsolated(t *testing.T) {
	l := newTestLog(t)

	_, err := l.Append(types.TopicFile, samplePayload(types.EventFileSaved))
	require.NoError(t, err)

	read, err := l.ReadSince(types.TopicParser, "", 100)
	require.NoError(t, err)
	assert.Empty(t, read)
}
