package schema

// CatalogDocument is the on-disk form of a step catalog: the canonical step
// table plus the expressions an orchestrator consults while driving a run.
type CatalogDocument struct {
	Version string         `json:"version,omitempty" yaml:"version,omitempty"`
	Steps   []CatalogEntry `json:"steps" yaml:"steps"`
	// OptionsSchema is a JSON Schema the run options must satisfy.
	OptionsSchema map[string]any `json:"options_schema,omitempty" yaml:"options_schema,omitempty"`
}

// CatalogEntry describes one step of the table.
type CatalogEntry struct {
	ID    StepID `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	// EnabledWhen is a CEL condition over options; empty means always enabled.
	EnabledWhen string `json:"enabled_when,omitempty" yaml:"enabled_when,omitempty"`
	// Summary is a jq program projecting the step into a display value.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	// EscalateWhen is an expr condition deciding whether a failed step
	// should fail the whole run.
	EscalateWhen string `json:"escalate_when,omitempty" yaml:"escalate_when,omitempty"`
}

// Definitions returns the step table in document order.
func (d *CatalogDocument) Definitions() []StepDefinition {
	defs := make([]StepDefinition, len(d.Steps))
	for i, e := range d.Steps {
		defs[i] = StepDefinition{ID: e.ID, Label: e.Label}
	}
	return defs
}

// CanonicalIndex returns the position of id in the canonical table, or -1.
func CanonicalIndex(id StepID) int {
	for i, d := range defaultSteps {
		if d.ID == id {
			return i
		}
	}
	return -1
}
