package pipeline

import "github.com/rendis/pipetrace/pkg/schema"

// Action is the closed set of commands the reducer understands. Only types
// declared in this package satisfy it.
type Action interface {
	action()
	// Kind is the wire tag of the action (RESET, START, ...).
	Kind() string
}

// Reset returns the store to its initial idle state.
type Reset struct{}

// Start begins a run with the enabled subset of the canonical steps.
type Start struct {
	Enabled []schema.StepID
}

// StepStart marks a step as running.
type StepStart struct {
	ID schema.StepID
}

// StepComplete marks a step as complete. A nil Data keeps the current payload.
type StepComplete struct {
	ID   schema.StepID
	Data Payload
}

// StepError marks a step as failed. The payload is always overwritten, with
// nil when Message is empty.
type StepError struct {
	ID      schema.StepID
	Message string
}

// StepUpdate replaces the payload of a step without touching its status.
type StepUpdate struct {
	ID   schema.StepID
	Data Payload
}

// StepSkip marks a step as skipped.
type StepSkip struct {
	ID schema.StepID
}

// Complete marks the whole run as complete.
type Complete struct{}

// Fail marks the whole run as failed.
type Fail struct {
	Message string
}

const (
	KindReset        = "RESET"
	KindStart        = "START"
	KindStepStart    = "STEP_START"
	KindStepComplete = "STEP_COMPLETE"
	KindStepError    = "STEP_ERROR"
	KindStepUpdate   = "STEP_UPDATE"
	KindStepSkip     = "STEP_SKIP"
	KindComplete     = "COMPLETE"
	KindError        = "ERROR"
)

func (Reset) action()        {}
func (Start) action()        {}
func (StepStart) action()    {}
func (StepComplete) action() {}
func (StepError) action()    {}
func (StepUpdate) action()   {}
func (StepSkip) action()     {}
func (Complete) action()     {}
func (Fail) action()         {}

func (Reset) Kind() string        { return KindReset }
func (Start) Kind() string        { return KindStart }
func (StepStart) Kind() string    { return KindStepStart }
func (StepComplete) Kind() string { return KindStepComplete }
func (StepError) Kind() string    { return KindStepError }
func (StepUpdate) Kind() string   { return KindStepUpdate }
func (StepSkip) Kind() string     { return KindStepSkip }
func (Complete) Kind() string     { return KindComplete }
func (Fail) Kind() string         { return KindError }

// TargetStep returns the step an action addresses, or "" for run-level actions.
func TargetStep(a Action) schema.StepID {
	switch a := a.(type) {
	case StepStart:
		return a.ID
	case StepComplete:
		return a.ID
	case StepError:
		return a.ID
	case StepUpdate:
		return a.ID
	case StepSkip:
		return a.ID
	default:
		return ""
	}
}
