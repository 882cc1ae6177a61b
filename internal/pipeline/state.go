package pipeline

import (
	"time"

	"github.com/rendis/pipetrace/pkg/schema"
)

// Step is the live record of one enabled canonical step.
type Step struct {
	ID        schema.StepID     `json:"id"`
	Label     string            `json:"label"`
	Status    schema.StepStatus `json:"status"`
	StartTime *time.Time        `json:"startTime,omitempty"`
	EndTime   *time.Time        `json:"endTime,omitempty"`
	Data      Payload           `json:"data,omitempty"`
}

// Duration returns EndTime-StartTime when both timestamps are present.
func (s Step) Duration() (time.Duration, bool) {
	if s.StartTime == nil || s.EndTime == nil {
		return 0, false
	}
	return s.EndTime.Sub(*s.StartTime), true
}

// State is the value owned by the reducer. Every action yields a new State;
// the Steps slice of a previous State is never written to.
type State struct {
	Steps  []Step           `json:"steps"`
	Status schema.RunStatus `json:"overallStatus"`
}

// Initial returns the idle state with no steps.
func Initial() State {
	return State{Steps: []Step{}, Status: schema.RunIdle}
}

// Index returns the position of the step with the given id, or -1.
func (s State) Index(id schema.StepID) int {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Step returns the step with the given id.
func (s State) Step(id schema.StepID) (Step, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Steps[i], true
	}
	return Step{}, false
}

// IDs returns the step ids in display order.
func (s State) IDs() []schema.StepID {
	ids := make([]schema.StepID, len(s.Steps))
	for i, st := range s.Steps {
		ids[i] = st.ID
	}
	return ids
}
