package expressions

import (
	"encoding/json"
	"fmt"

	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

// Scope is the data an expression is evaluated against. All values are plain
// JSON shapes (maps, slices, strings, float64, bool) so that the three engines
// see the same thing.
type Scope struct {
	Options map[string]any
	Run     map[string]any
	Step    map[string]any
}

// Data returns the scope as the variable map passed to Engine.Evaluate.
func (s Scope) Data() map[string]any {
	return map[string]any{
		"options": orEmpty(s.Options),
		"run":     orEmpty(s.Run),
		"step":    orEmpty(s.Step),
	}
}

// OptionsScope returns a scope holding only the run options. Options are
// deep-copied.
func OptionsScope(options map[string]any) Scope {
	return Scope{Options: deepCopyMap(options)}
}

// StepScope returns a scope for the step with the given id in state. The run
// view lists every step; the step view is empty when id is not in state.
func StepScope(options map[string]any, state pipeline.State, id schema.StepID) (Scope, error) {
	run, err := RunData(state)
	if err != nil {
		return Scope{}, err
	}
	scope := Scope{Options: deepCopyMap(options), Run: run}
	if step, ok := state.Step(id); ok {
		if scope.Step, err = StepData(step); err != nil {
			return Scope{}, err
		}
	}
	return scope, nil
}

// StepData converts a step to its JSON shape and adds duration_ms when both
// timestamps are set.
func StepData(step pipeline.Step) (map[string]any, error) {
	m, err := toJSONMap(step)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"cannot expose step %q to expressions: %s", step.ID, err.Error()).
			WithStep(step.ID).
			WithCause(err)
	}
	if d, ok := step.Duration(); ok {
		m["duration_ms"] = float64(d.Milliseconds())
	}
	return m, nil
}

// RunData converts a state to {status, steps, counts}. counts maps each step
// status to the number of steps in it.
func RunData(state pipeline.State) (map[string]any, error) {
	steps := make([]any, 0, len(state.Steps))
	counts := map[string]any{}
	for _, st := range state.Steps {
		m, err := StepData(st)
		if err != nil {
			return nil, err
		}
		steps = append(steps, m)
		n, _ := counts[string(st.Status)].(float64)
		counts[string(st.Status)] = n + 1
	}
	return map[string]any{
		"status": string(state.Status),
		"steps":  steps,
		"counts": counts,
	}, nil
}

func toJSONMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return m, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
