package recorder

// NoopRecorder is a no-op implementation used when history is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAlertEvent(_ *AlertEvent) error { return nil }
func (n *NoopRecorder) RecordTick(_ *TickSummary) error      { return nil }
func (n *NoopRecorder) Close() error                         { return nil }
