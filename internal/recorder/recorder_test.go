package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WhaleSentinel/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer r.Close()

	run := uuid.New()
	now := time.Now()
	require.NoError(t, r.RecordAlertEvent(&AlertEvent{
		RunID: run, Symbol: "BTCUSDT", EventType: EventCreated,
		Kind: model.KindEntry, Message: "whale", At: now,
	}))
	require.NoError(t, r.RecordAlertEvent(&AlertEvent{
		RunID: run, Symbol: "BTCUSDT", EventType: EventExpired, At: now,
	}))
	require.NoError(t, r.RecordTick(&TickSummary{
		RunID: run, StartedAt: now, Duration: 1500 * time.Millisecond,
		Symbols: 10, Classified: 9, Entries: 1, Skipped: 1,
	}))

	n, err := r.CountAlertEvents("BTCUSDT", EventCreated)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.CountAlertEvents("ETHUSDT", EventCreated)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordAlertEvent(&AlertEvent{}))
	assert.NoError(t, r.RecordTick(&TickSummary{}))
	assert.NoError(t, r.Close())
}
