package schema

// StepID identifies one canonical pipeline step.
type StepID string

const (
	StepClassification StepID = "classification"
	StepSearch         StepID = "search"
	StepGeneration     StepID = "generation"
	StepConfidence     StepID = "confidence"
	StepFollowup       StepID = "followup"
)

// StepDefinition is one entry of the canonical step table.
type StepDefinition struct {
	ID    StepID `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// defaultSteps is the product-wide canonical step table. Its order is the
// display order of every run, whatever subset of it is enabled.
var defaultSteps = []StepDefinition{
	{ID: StepClassification, Label: "Classification"},
	{ID: StepSearch, Label: "Search"},
	{ID: StepGeneration, Label: "Generation"},
	{ID: StepConfidence, Label: "Confidence"},
	{ID: StepFollowup, Label: "Follow-up"},
}

// DefaultSteps returns a copy of the canonical step table.
func DefaultSteps() []StepDefinition {
	return append([]StepDefinition(nil), defaultSteps...)
}

// IsKnownStep reports whether id is one of the canonical step identifiers.
func IsKnownStep(id StepID) bool {
	switch id {
	case StepClassification, StepSearch, StepGeneration, StepConfidence, StepFollowup:
		return true
	default:
		return false
	}
}
