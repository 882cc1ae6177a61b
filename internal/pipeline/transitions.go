package pipeline

import "github.com/rendis/pipetrace/pkg/schema"

// ValidStepTransitions lists the step status changes an orderly orchestrator
// produces. The reducer does not enforce it; Audit reports departures.
var ValidStepTransitions = map[schema.StepStatus][]schema.StepStatus{
	schema.StepPending:  {schema.StepRunning, schema.StepSkipped},
	schema.StepRunning:  {schema.StepComplete, schema.StepError, schema.StepSkipped},
	schema.StepComplete: {},
	schema.StepError:    {},
	schema.StepSkipped:  {},
}

// ValidRunTransitions lists the overall status changes of an orderly run.
var ValidRunTransitions = map[schema.RunStatus][]schema.RunStatus{
	schema.RunIdle:     {schema.RunRunning},
	schema.RunRunning:  {schema.RunComplete, schema.RunError},
	schema.RunComplete: {schema.RunRunning},
	schema.RunError:    {schema.RunRunning},
}

// Audit checks a against state without applying it. A nil result means the
// action is in sequence; otherwise the error is an INVALID_TRANSITION or
// NOT_FOUND TraceError describing what an orderly orchestrator would not do.
// Reset is always in sequence.
func Audit(state State, a Action) error {
	switch a := a.(type) {
	case Reset:
		return nil

	case Start:
		if !isValidRunTransition(state.Status, schema.RunRunning) {
			return schema.NewErrorf(schema.ErrCodeInvalidTransition,
				"run already %s; reset before starting again", state.Status).
				WithDetails(map[string]any{"action": a.Kind()})
		}
		for _, id := range a.Enabled {
			if !schema.IsKnownStep(id) {
				return schema.NewErrorf(schema.ErrCodeNotFound, "unknown step id %q", id).
					WithStep(id).
					WithDetails(map[string]any{"action": a.Kind()})
			}
		}
		return nil

	case StepStart:
		return auditStep(state, a, schema.StepRunning)
	case StepComplete:
		return auditStep(state, a, schema.StepComplete)
	case StepError:
		return auditStep(state, a, schema.StepError)
	case StepSkip:
		return auditStep(state, a, schema.StepSkipped)

	case StepUpdate:
		step, err := findStep(state, a)
		if err != nil {
			return err
		}
		if step.Status != schema.StepRunning {
			return schema.NewErrorf(schema.ErrCodeInvalidTransition,
				"payload update on %s step", step.Status).
				WithStep(a.ID).
				WithDetails(map[string]any{"action": a.Kind(), "status": string(step.Status)})
		}
		return nil

	case Complete:
		return auditRun(state, a, schema.RunComplete)
	case Fail:
		return auditRun(state, a, schema.RunError)

	default:
		return schema.NewErrorf(schema.ErrCodeInvalidTransition, "unsupported action %T", a)
	}
}

func auditStep(state State, a Action, to schema.StepStatus) error {
	step, err := findStep(state, a)
	if err != nil {
		return err
	}
	if !isValidStepTransition(step.Status, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid step transition: %s -> %s", step.Status, to).
			WithStep(step.ID).
			WithDetails(map[string]any{"action": a.Kind(), "from": string(step.Status), "to": string(to)})
	}
	return nil
}

func auditRun(state State, a Action, to schema.RunStatus) error {
	if !isValidRunTransition(state.Status, to) {
		return schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"invalid run transition: %s -> %s", state.Status, to).
			WithDetails(map[string]any{"action": a.Kind(), "from": string(state.Status), "to": string(to)})
	}
	return nil
}

func findStep(state State, a Action) (Step, error) {
	id := TargetStep(a)
	step, ok := state.Step(id)
	if !ok {
		return Step{}, schema.NewErrorf(schema.ErrCodeNotFound, "step %q is not part of the current run", id).
			WithStep(id).
			WithDetails(map[string]any{"action": a.Kind()})
	}
	return step, nil
}

func isValidStepTransition(from, to schema.StepStatus) bool {
	for _, allowed := range ValidStepTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func isValidRunTransition(from, to schema.RunStatus) bool {
	for _, allowed := range ValidRunTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
