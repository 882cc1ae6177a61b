package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rendis/pipetrace/internal/expressions"
	"github.com/rendis/pipetrace/pkg/schema"
)

// validateSemantic checks what the schema cannot express: duplicate ids,
// departures from the canonical order, blank labels, expressions that do not
// compile and an unusable options schema.
func validateSemantic(doc *schema.CatalogDocument, engines Engines, jsv *JSONSchemaValidator) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	seen := make(map[schema.StepID]int, len(doc.Steps))
	lastCanonical := -1
	for i, entry := range doc.Steps {
		path := fmt.Sprintf("steps[%d]", i)

		if first, dup := seen[entry.ID]; dup {
			result.AddError(path+".id",
				fmt.Sprintf("duplicate step id %q (first declared at steps[%d])", entry.ID, first))
			continue
		}
		seen[entry.ID] = i

		if idx := schema.CanonicalIndex(entry.ID); idx < lastCanonical {
			result.AddWarning(path+".id",
				fmt.Sprintf("step %q is listed after a step that precedes it in the default order", entry.ID))
		} else {
			lastCanonical = idx
		}

		if strings.TrimSpace(entry.Label) == "" {
			result.AddWarning(path+".label", "label is blank; the step id will be displayed instead")
		}

		checkExpression(result, path+".enabled_when", engines.EnabledWhen, entry.EnabledWhen)
		checkExpression(result, path+".summary", engines.Summary, entry.Summary)
		checkExpression(result, path+".escalate_when", engines.EscalateWhen, entry.EscalateWhen)
	}

	if len(doc.OptionsSchema) > 0 && jsv != nil {
		if err := jsv.CompileOptionsSchema(doc.OptionsSchema); err != nil {
			result.AddError("options_schema", fmt.Sprintf("invalid JSON Schema: %s", err.Error()))
		}
	}

	return result
}

func checkExpression(result *schema.ValidationResult, path string, checker expressions.Checker, expression string) {
	if checker == nil || expression == "" {
		return
	}
	if err := checker.Check(expression); err != nil {
		msg := err.Error()
		var te *schema.TraceError
		if errors.As(err, &te) {
			msg = te.Message
		}
		result.AddError(path, msg)
	}
}
