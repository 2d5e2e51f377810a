package types

import "time"

// RunEventType identifies a step or run lifecycle event.
type RunEventType string

const (
	EventRunStarted     RunEventType = "run_started"
	EventRunFinished    RunEventType = "run_finished"
	EventStepStarted    RunEventType = "step_started"
	EventStepFinished   RunEventType = "step_finished"
	EventStepBlocked    RunEventType = "step_blocked"
	EventStepRolledBack RunEventType = "step_rolled_back"
)

// RunEvent is emitted on a run's event channel as execution progresses.
// Consumers (the websocket stream, the CLI progress display) read the channel
// until it is closed when the run reaches a terminal state.
type RunEvent struct {
	Type      RunEventType `json:"type"`
	RunID     string       `json:"run_id"`
	StepID    string       `json:"step_id,omitempty"`
	Status    string       `json:"status,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// EventSink receives run events. Implementations must not block for long;
// the engine drops events if the sink cannot keep up.
type EventSink interface {
	Publish(event RunEvent)
}
