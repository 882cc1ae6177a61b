package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/pipetrace/pkg/schema"
)

// JSONSchemaValidator implements the structural half of the Validator
// interface using JSON Schema Draft 2020-12. It is safe for concurrent use.
type JSONSchemaValidator struct {
	catalogSchema *jsonschema.Schema
	recordSchema  *jsonschema.Schema

	// mu guards the cache of options schemas supplied by catalogs.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the catalog and
// record schemas pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := newCompiler()
	for url, src := range map[string]string{
		catalogSchemaURL: catalogSchemaJSON,
		recordSchemaURL:  recordSchemaJSON,
	} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	catalog, err := c.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	record, err := c.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}

	return &JSONSchemaValidator{
		catalogSchema: catalog,
		recordSchema:  record,
		cache:         make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateCatalog validates doc against the catalog schema.
func (v *JSONSchemaValidator) ValidateCatalog(doc *schema.CatalogDocument) error {
	if doc == nil {
		return schema.NewError(schema.ErrCodeValidation, "catalog document is nil")
	}
	value, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize catalog").WithCause(err)
	}
	if err := v.catalogSchema.Validate(value); err != nil {
		return toTraceError(err)
	}
	return nil
}

// ValidateRecord validates one decoded journal line against the record schema.
func (v *JSONSchemaValidator) ValidateRecord(record map[string]any) error {
	if record == nil {
		return schema.NewError(schema.ErrCodeValidation, "record is nil")
	}
	value, err := toJSONValue(record)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize record").WithCause(err)
	}
	if err := v.recordSchema.Validate(value); err != nil {
		return toTraceError(err)
	}
	return nil
}

// ValidateOptions validates run options against a catalog-supplied schema.
// An empty schema accepts anything. Compiled schemas are cached by content.
func (v *JSONSchemaValidator) ValidateOptions(options map[string]any, optionsSchema map[string]any) error {
	if len(optionsSchema) == 0 {
		return nil
	}
	if options == nil {
		options = map[string]any{}
	}

	compiled, err := v.getOrCompile(optionsSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid options schema").WithCause(err)
	}

	value, err := toJSONValue(options)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize options").WithCause(err)
	}
	if err := compiled.Validate(value); err != nil {
		return toTraceError(err)
	}
	return nil
}

// CompileOptionsSchema reports whether optionsSchema is a usable JSON Schema.
func (v *JSONSchemaValidator) CompileOptionsSchema(optionsSchema map[string]any) error {
	_, err := v.getOrCompile(optionsSchema)
	return err
}

func (v *JSONSchemaValidator) getOrCompile(src map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Fresh compiler and URL per schema so resources never collide.
	url := fmt.Sprintf("pipetrace://options-schema/%d", len(v.cache))
	c := newCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

func newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toJSONValue round-trips v through encoding/json so that numbers become
// json.Number, as the jsonschema library expects.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toTraceError converts a jsonschema.ValidationError into a VALIDATION_ERROR
// TraceError listing every leaf violation with its instance location.
func toTraceError(err error) *schema.TraceError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}
	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", instancePath(verr.InstanceLocation), verr.Error())}
	}
	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

func instancePath(loc []string) string {
	return "/" + strings.Join(loc, "/")
}

var _ Validator = (*JSONSchemaValidator)(nil)
