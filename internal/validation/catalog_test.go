package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/pipetrace/internal/expressions"
	"github.com/rendis/pipetrace/pkg/schema"
)

func newCatalogValidator(t *testing.T) *CatalogValidator {
	t.Helper()
	cel, err := expressions.NewCELEngine()
	require.NoError(t, err)
	cv, err := NewCatalogValidator(Engines{
		EnabledWhen:  cel,
		Summary:      expressions.NewGoJQEngine(),
		EscalateWhen: expressions.NewExprEngine(),
	})
	require.NoError(t, err)
	return cv
}

func TestCatalogValidator_Valid(t *testing.T) {
	cv := newCatalogValidator(t)
	doc := &schema.CatalogDocument{
		Steps: []schema.CatalogEntry{
			{ID: schema.StepClassification, Label: "Classification", Summary: ".step.data.category"},
			{ID: schema.StepSearch, Label: "Search", EnabledWhen: "options.retrieval", EscalateWhen: `step.data == "timeout"`},
			{ID: schema.StepGeneration, Label: "Generation"},
		},
	}
	result := cv.Validate(doc)
	assert.True(t, result.Valid(), "%v", result.Errors)
	assert.Empty(t, result.Warnings)
	assert.NoError(t, cv.ValidateCatalog(doc))
}

func TestCatalogValidator_StructuralShortCircuits(t *testing.T) {
	cv := newCatalogValidator(t)
	doc := &schema.CatalogDocument{
		Steps: []schema.CatalogEntry{
			{ID: "rerank", Label: "Rerank", EnabledWhen: "options.("},
		},
	}
	result := cv.Validate(doc)
	require.False(t, result.Valid())
	for _, issue := range result.Errors {
		assert.Equal(t, "/", issue.Path)
	}
}

func TestCatalogValidator_Semantic(t *testing.T) {
	cv := newCatalogValidator(t)
	doc := &schema.CatalogDocument{
		Steps: []schema.CatalogEntry{
			{ID: schema.StepSearch, Label: "Search", EnabledWhen: "options.("},
			{ID: schema.StepClassification, Label: " "},
			{ID: schema.StepSearch, Label: "Search again"},
			{ID: schema.StepGeneration, Label: "Generation", Summary: ".[", EscalateWhen: "step.status =="},
		},
		OptionsSchema: map[string]any{"type": 12},
	}

	result := cv.Validate(doc)
	require.False(t, result.Valid())

	paths := make([]string, 0, len(result.Errors))
	for _, issue := range result.Errors {
		paths = append(paths, issue.Path)
	}
	assert.ElementsMatch(t, []string{
		"steps[0].enabled_when",
		"steps[2].id",
		"steps[3].summary",
		"steps[3].escalate_when",
		"options_schema",
	}, paths)

	warnPaths := make([]string, 0, len(result.Warnings))
	for _, issue := range result.Warnings {
		warnPaths = append(warnPaths, issue.Path)
	}
	assert.ElementsMatch(t, []string{"steps[1].id", "steps[1].label"}, warnPaths)

	err := cv.ValidateCatalog(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5 problems")
}

func TestCatalogValidator_NilEnginesSkipExpressions(t *testing.T) {
	cv, err := NewCatalogValidator(Engines{})
	require.NoError(t, err)
	doc := &schema.CatalogDocument{
		Steps: []schema.CatalogEntry{{ID: schema.StepSearch, Label: "Search", EnabledWhen: "options.("}},
	}
	assert.True(t, cv.Validate(doc).Valid())
}

func TestCatalogValidator_Nil(t *testing.T) {
	cv := newCatalogValidator(t)
	assert.False(t, cv.Validate(nil).Valid())
}
