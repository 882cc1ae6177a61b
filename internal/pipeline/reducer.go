package pipeline

import (
	"time"

	"github.com/rendis/pipetrace/pkg/schema"
)

// Reducer is the step state store: a total transition function over
// (State, Action) pairs built from the canonical step table.
type Reducer struct {
	defs []schema.StepDefinition
	now  func() time.Time
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithClock sets the source of transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReducer creates a reducer for the given canonical table. A nil or empty
// table selects schema.DefaultSteps(). The table is copied.
func NewReducer(defs []schema.StepDefinition, opts ...Option) *Reducer {
	if len(defs) == 0 {
		defs = schema.DefaultSteps()
	}
	r := &Reducer{
		defs: append([]schema.StepDefinition(nil), defs...),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultReducer = NewReducer(nil)

// Reduce applies a to state using the default canonical table and wall clock.
func Reduce(state State, a Action) State {
	return defaultReducer.Reduce(state, a)
}

// Definitions returns a copy of the canonical table.
func (r *Reducer) Definitions() []schema.StepDefinition {
	return append([]schema.StepDefinition(nil), r.defs...)
}

// Reduce returns the state that results from applying a to state. It never
// fails: actions addressing a step that is not part of the run, and run-level
// actions while idle, return state unchanged.
func (r *Reducer) Reduce(state State, a Action) State {
	switch a := a.(type) {
	case Reset:
		return Initial()

	case Start:
		return r.start(a.Enabled)

	case StepStart:
		return r.updateStep(state, a.ID, func(s *Step, now time.Time) {
			s.Status = schema.StepRunning
			s.StartTime = &now
		})

	case StepComplete:
		return r.updateStep(state, a.ID, func(s *Step, now time.Time) {
			s.Status = schema.StepComplete
			s.EndTime = &now
			if a.Data != nil {
				s.Data = a.Data
			}
		})

	case StepError:
		return r.updateStep(state, a.ID, func(s *Step, now time.Time) {
			s.Status = schema.StepError
			s.EndTime = &now
			if a.Message != "" {
				s.Data = ErrorMessage(a.Message)
			} else {
				s.Data = nil
			}
		})

	case StepUpdate:
		return r.updateStep(state, a.ID, func(s *Step, _ time.Time) {
			s.Data = a.Data
		})

	case StepSkip:
		return r.updateStep(state, a.ID, func(s *Step, now time.Time) {
			s.Status = schema.StepSkipped
			s.EndTime = &now
		})

	case Complete:
		return withStatus(state, schema.RunComplete)

	case Fail:
		return withStatus(state, schema.RunError)

	default:
		return state
	}
}

// start builds the pending steps in canonical order, replacing whatever run
// was in progress. An enabled set that matches no canonical step yields the
// idle state.
func (r *Reducer) start(enabled []schema.StepID) State {
	want := make(map[schema.StepID]struct{}, len(enabled))
	for _, id := range enabled {
		want[id] = struct{}{}
	}

	steps := make([]Step, 0, len(want))
	for _, def := range r.defs {
		if _, ok := want[def.ID]; !ok {
			continue
		}
		steps = append(steps, Step{ID: def.ID, Label: def.Label, Status: schema.StepPending})
	}
	if len(steps) == 0 {
		return Initial()
	}
	return State{Steps: steps, Status: schema.RunRunning}
}

func (r *Reducer) updateStep(state State, id schema.StepID, apply func(*Step, time.Time)) State {
	i := state.Index(id)
	if i < 0 {
		return state
	}
	steps := make([]Step, len(state.Steps))
	copy(steps, state.Steps)
	apply(&steps[i], r.now())
	return State{Steps: steps, Status: state.Status}
}

// withStatus keeps the "no steps iff idle" invariant by ignoring run-level
// transitions when no run exists.
func withStatus(state State, status schema.RunStatus) State {
	if state.Status == schema.RunIdle {
		return state
	}
	return State{Steps: state.Steps, Status: status}
}
