package streaming

import "context"

// TraceEvent is published for every action a tracker applies.
type TraceEvent struct {
	RunID     string `json:"run_id"`
	Seq       uint64 `json:"seq"`
	StepID    string `json:"step_id,omitempty"`
	EventType string `json:"event_type"`
	// Snapshot is the state after the action was applied.
	Snapshot any `json:"snapshot,omitempty"`
}

// EventFilter selects the events a subscriber receives. Empty fields match
// everything.
type EventFilter struct {
	RunID      string   `json:"run_id,omitempty"`
	StepIDs    []string `json:"step_ids,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// EventHub fans trace events out to view-layer subscribers.
type EventHub interface {
	Publish(ctx context.Context, event TraceEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan TraceEvent, func(), error)
}
