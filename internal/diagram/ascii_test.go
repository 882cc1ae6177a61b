package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/pipetrace/internal/layout"
	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/pkg/schema"
)

func TestRenderASCII_TwoRows(t *testing.T) {
	state := fourSteps()
	model, err := Build(state, layout.Compute(len(state.Steps)))
	require.NoError(t, err)

	out := RenderASCII(model)
	lines := strings.Split(out, "\n")

	// Box: width 18 ("Classification" + 4), 3 content lines + 2 borders.
	assert.Equal(t, "┌────────────────┐     ┌────────────────┐", lines[0])
	assert.Equal(t, "│ Classification │ ──▶ │ Search         │", lines[1])
	assert.Equal(t, "│ [OK]           │     │ [RUN]          │", lines[2])
	assert.Equal(t, "│ 1000ms         │     │                │", lines[3])

	// Drop under the centre of the second column: 1*(18+5) + 18/2.
	assert.Equal(t, strings.Repeat(" ", 32)+"│", lines[5])
	assert.Equal(t, strings.Repeat(" ", 32)+"▼", lines[6])

	assert.Equal(t, "│ Confidence     │ ◀── │ Generation     │", lines[8])
	assert.Contains(t, out, "run: running\n")
}

func TestRenderASCII_OddBottomRowLeavesFirstColumnEmpty(t *testing.T) {
	state := pipeline.State{Status: schema.RunRunning}
	for _, d := range schema.DefaultSteps() {
		state.Steps = append(state.Steps, pipeline.Step{ID: d.ID, Label: d.Label, Status: schema.StepPending})
	}
	model, err := Build(state, layout.Compute(5))
	require.NoError(t, err)

	out := RenderASCII(model)
	lines := strings.Split(out, "\n")

	// 3 top boxes of width 18 with 2 connectors, then the drop, then the
	// bottom row starting with a blank first column.
	assert.Contains(t, lines[1], "│ Classification │ ──▶ │ Search         │ ──▶ │ Generation     │")
	bottom := lines[8]
	assert.True(t, strings.HasPrefix(bottom, strings.Repeat(" ", 23)+"│ Follow-up      │ ◀── │ Confidence     │"), bottom)
}

func TestRenderASCII_ErrorsAndTitle(t *testing.T) {
	state := pipeline.State{
		Status: schema.RunError,
		Steps: []pipeline.Step{
			{ID: schema.StepSearch, Label: "Search", Status: schema.StepError, Data: pipeline.ErrorMessage("timeout")},
		},
	}
	model, err := Build(state, layout.Compute(1), WithTitle("failed run"))
	require.NoError(t, err)

	out := RenderASCII(model)
	assert.True(t, strings.HasPrefix(out, "=== failed run ===\n\n"))
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "! search: timeout\n")
	assert.Contains(t, out, "run: error\n")
	assert.NotContains(t, out, "──▶")
}

func TestRenderASCII_Empty(t *testing.T) {
	model, err := Build(pipeline.Initial(), layout.Compute(0))
	require.NoError(t, err)
	assert.Equal(t, "(no steps)\n", RenderASCII(model))
}
