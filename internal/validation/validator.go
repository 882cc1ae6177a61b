package validation

import "github.com/rendis/pipetrace/pkg/schema"

// Validator checks catalog documents and journal records before they are used.
// Uses JSON Schema Draft 2020-12.
type Validator interface {
	ValidateCatalog(doc *schema.CatalogDocument) error
	ValidateRecord(record map[string]any) error
	ValidateOptions(options map[string]any, optionsSchema map[string]any) error
}
