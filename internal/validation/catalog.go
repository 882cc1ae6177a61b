package validation

import (
	"errors"

	"github.com/rendis/pipetrace/internal/expressions"
	"github.com/rendis/pipetrace/pkg/schema"
)

// Engines holds the expression engines a catalog's expressions are checked with.
// A nil engine skips the check for its field.
type Engines struct {
	EnabledWhen  expressions.Checker
	Summary      expressions.Checker
	EscalateWhen expressions.Checker
}

// CatalogValidator runs the two validation stages for a catalog:
// 1. Structural (JSON Schema)
// 2. Semantic (duplicates, canonical order, labels, expressions, options schema)
type CatalogValidator struct {
	jsonSchema *JSONSchemaValidator
	engines    Engines
}

// NewCatalogValidator creates a CatalogValidator.
func NewCatalogValidator(engines Engines) (*CatalogValidator, error) {
	jsv, err := NewJSONSchemaValidator()
	if err != nil {
		return nil, err
	}
	return &CatalogValidator{jsonSchema: jsv, engines: engines}, nil
}

// Validate runs both stages and returns an aggregated result. Structural
// errors short-circuit the semantic stage.
func (cv *CatalogValidator) Validate(doc *schema.CatalogDocument) *schema.ValidationResult {
	if doc == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", "catalog document is nil")
		return r
	}

	result := validateStructural(cv.jsonSchema, doc)
	if !result.Valid() {
		return result
	}
	result.Merge(validateSemantic(doc, cv.engines, cv.jsonSchema))
	return result
}

// ValidateCatalog satisfies the Validator interface.
func (cv *CatalogValidator) ValidateCatalog(doc *schema.CatalogDocument) error {
	return cv.Validate(doc).ToError()
}

// ValidateRecord delegates to the underlying JSONSchemaValidator.
func (cv *CatalogValidator) ValidateRecord(record map[string]any) error {
	return cv.jsonSchema.ValidateRecord(record)
}

// ValidateOptions delegates to the underlying JSONSchemaValidator.
func (cv *CatalogValidator) ValidateOptions(options, optionsSchema map[string]any) error {
	return cv.jsonSchema.ValidateOptions(options, optionsSchema)
}

// validateStructural converts JSONSchemaValidator.ValidateCatalog output into
// a ValidationResult, one issue per violation.
func validateStructural(v *JSONSchemaValidator, doc *schema.CatalogDocument) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	err := v.ValidateCatalog(doc)
	if err == nil {
		return result
	}

	var te *schema.TraceError
	if !errors.As(err, &te) {
		result.AddError("/", err.Error())
		return result
	}
	if violations, ok := te.Details["violations"].([]string); ok {
		for _, msg := range violations {
			result.AddError("/", msg)
		}
		return result
	}
	result.AddError("/", te.Message)
	return result
}

var _ Validator = (*CatalogValidator)(nil)
