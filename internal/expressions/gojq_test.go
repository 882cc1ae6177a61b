package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

func TestNewGoJQEngine(t *testing.T) {
	e := NewGoJQEngine()
	assert.Equal(t, "jq", e.Name())
}

func searchScope(t *testing.T) map[string]any {
	t.Helper()
	state := pipeline.State{
		Status: schema.RunRunning,
		Steps: []pipeline.Step{{
			ID:     schema.StepSearch,
			Label:  "Search",
			Status: schema.StepComplete,
			Data: pipeline.SearchHits{Hits: []pipeline.Hit{
				{ID: "d1", Score: 0.91, Source: "handbook"},
				{ID: "d2", Score: 0.42, Source: "faq"},
				{ID: "d3", Score: 0.77, Source: "handbook"},
			}},
		}},
	}
	scope, err := StepScope(nil, state, schema.StepSearch)
	require.NoError(t, err)
	return scope.Data()
}

func TestGoJQ_Summaries(t *testing.T) {
	e := NewGoJQEngine()
	data := searchScope(t)

	tests := []struct {
		name string
		expr string
		want any
	}{
		{"count", `.step.data.hits | length`, 3},
		{"best", `.step.data.hits | max_by(.score) | .id`, "d1"},
		{"sources", `[.step.data.hits[].source] | unique`, []any{"faq", "handbook"}},
		{"string", `"\(.step.data.hits | length) hits"`, "3 hits"},
		{"missing", `.step.data.nothing`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tt.expr, data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGoJQ_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()
	data := searchScope(t)

	out, err := e.Evaluate(context.Background(), `.step.data.hits[] | select(.score > 0.5) | .id`, data)
	require.NoError(t, err)
	assert.Equal(t, []any{"d1", "d3"}, out)

	all, err := e.EvaluateAll(context.Background(), `.step.data.hits[] | select(.score > 0.95)`, data)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGoJQ_NormalizesIntegers(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `.options.n + 1`, map[string]any{
		"options": map[string]any{"n": int64(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, out)
}

func TestGoJQ_NoEnvironment(t *testing.T) {
	e := NewGoJQEngine()
	out, err := e.Evaluate(context.Background(), `$ENV | length`, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out)
}

func TestGoJQ_Errors(t *testing.T) {
	e := NewGoJQEngine()
	ctx := context.Background()

	_, err := e.Evaluate(ctx, "", nil)
	assertCode(t, err, schema.ErrCodeValidation)

	_, err = e.Evaluate(ctx, ".[", nil)
	assertCode(t, err, schema.ErrCodeValidation)

	_, err = e.Evaluate(ctx, `.step.label | tonumber`, searchScope(t))
	assertCode(t, err, schema.ErrCodeExpression)
}

func TestGoJQ_Check(t *testing.T) {
	e := NewGoJQEngine()
	require.NoError(t, e.Check(`.step.data.hits | length`))
	assertCode(t, e.Check(".["), schema.ErrCodeValidation)
}
