package recorder

import (
	"time"

	"github.com/google/uuid"

	"WhaleSentinel/internal/model"
)

// Alert lifecycle event types.
const (
	EventCreated = "CREATED"
	EventExit    = "EXIT"
	EventExpired = "EXPIRED"
	EventCleared = "CLEARED"
)

// AlertEvent records a change in a symbol's alert state.
type AlertEvent struct {
	RunID     uuid.UUID
	Symbol    string
	EventType string
	Kind      model.SignalKind
	Message   string
	At        time.Time
}

// TickSummary records the outcome of one polling tick.
type TickSummary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	Duration   time.Duration
	Symbols    int
	Classified int
	Entries    int
	Exits      int
	Skipped    int
	Expired    int
	Active     int
	Err        string // set when the tick aborted
}

// Recorder persists alert history for later analysis.
type Recorder interface {
	RecordAlertEvent(evt *AlertEvent) error
	RecordTick(sum *TickSummary) error
	Close() error
}
