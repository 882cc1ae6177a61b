// Package catalog loads the canonical step table from YAML and evaluates the
// per-step hints an orchestrator consults while driving a run: which steps a
// request enables, how a step payload is summarized, and whether a failed step
// should fail the whole run.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/pipetrace/internal/expressions"
	"github.com/rendis/pipetrace/internal/pipeline"
	"github.com/rendis/pipetrace/internal/validation"
	"github.com/rendis/pipetrace/pkg/schema"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is a validated step table with compiled expression engines.
// It is safe for concurrent use.
type Catalog struct {
	doc      schema.CatalogDocument
	defs     []schema.StepDefinition
	entries  map[schema.StepID]schema.CatalogEntry
	warnings []schema.ValidationIssue

	cel       *expressions.CELEngine
	jq        *expressions.GoJQEngine
	expr      *expressions.ExprEngine
	validator *validation.CatalogValidator
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
// Validation warnings do not fail the parse and are available from Warnings.
func Parse(data []byte) (*Catalog, error) {
	var doc schema.CatalogDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, schema.NewError(schema.ErrCodeDecode, "catalog is empty")
		}
		return nil, schema.NewErrorf(schema.ErrCodeDecode, "parse catalog: %s", err.Error()).WithCause(err)
	}
	return New(&doc)
}

// New validates doc and builds a Catalog from it.
func New(doc *schema.CatalogDocument) (*Catalog, error) {
	cel, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	c := &Catalog{
		cel:  cel,
		jq:   expressions.NewGoJQEngine(),
		expr: expressions.NewExprEngine(),
	}
	c.validator, err = validation.NewCatalogValidator(validation.Engines{
		EnabledWhen:  c.cel,
		Summary:      c.jq,
		EscalateWhen: c.expr,
	})
	if err != nil {
		return nil, err
	}

	result := c.validator.Validate(doc)
	if err := result.ToError(); err != nil {
		return nil, err
	}

	c.doc = *doc
	c.warnings = result.Warnings
	c.entries = make(map[schema.StepID]schema.CatalogEntry, len(doc.Steps))
	c.defs = make([]schema.StepDefinition, len(doc.Steps))
	for i, e := range doc.Steps {
		if strings.TrimSpace(e.Label) == "" {
			e.Label = string(e.ID)
		}
		c.entries[e.ID] = e
		c.defs[i] = schema.StepDefinition{ID: e.ID, Label: e.Label}
	}
	return c, nil
}

// Version returns the document version, if any.
func (c *Catalog) Version() string {
	return c.doc.Version
}

// Definitions returns a copy of the step table in catalog order. Blank labels
// are replaced by the step id.
func (c *Catalog) Definitions() []schema.StepDefinition {
	return append([]schema.StepDefinition(nil), c.defs...)
}

// Entry returns the catalog entry for id.
func (c *Catalog) Entry(id schema.StepID) (schema.CatalogEntry, bool) {
	e, ok := c.entries[id]
	return e, ok
}

// Warnings returns the advisory issues found while validating the catalog.
func (c *Catalog) Warnings() []schema.ValidationIssue {
	return append([]schema.ValidationIssue(nil), c.warnings...)
}

// Reducer returns a pipeline reducer over the catalog's step table.
func (c *Catalog) Reducer(opts ...pipeline.Option) *pipeline.Reducer {
	return pipeline.NewReducer(c.defs, opts...)
}

// Plan returns the ids of the steps enabled for a run requested with options,
// in catalog order. options must satisfy the catalog's options_schema.
func (c *Catalog) Plan(ctx context.Context, options map[string]any) ([]schema.StepID, error) {
	if err := c.validator.ValidateOptions(options, c.doc.OptionsSchema); err != nil {
		return nil, fmt.Errorf("run options: %w", err)
	}

	data := expressions.OptionsScope(options).Data()
	enabled := make([]schema.StepID, 0, len(c.defs))
	for _, def := range c.defs {
		cond := c.entries[def.ID].EnabledWhen
		if cond == "" {
			enabled = append(enabled, def.ID)
			continue
		}
		ok, err := expressions.EvaluateBool(ctx, c.cel, cond, data)
		if err != nil {
			return nil, withStep(err, def.ID)
		}
		if ok {
			enabled = append(enabled, def.ID)
		}
	}
	return enabled, nil
}

// Start returns the START action for a run requested with options.
func (c *Catalog) Start(ctx context.Context, options map[string]any) (pipeline.Start, error) {
	enabled, err := c.Plan(ctx, options)
	if err != nil {
		return pipeline.Start{}, err
	}
	return pipeline.Start{Enabled: enabled}, nil
}

// Summarize evaluates the summary program of step id against state. It
// returns nil when the entry has no summary.
func (c *Catalog) Summarize(ctx context.Context, state pipeline.State, id schema.StepID) (any, error) {
	entry, ok := c.entries[id]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "step %q is not in the catalog", id).WithStep(id)
	}
	if entry.Summary == "" {
		return nil, nil
	}
	if _, ok := state.Step(id); !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "step %q is not part of the current run", id).WithStep(id)
	}
	scope, err := expressions.StepScope(nil, state, id)
	if err != nil {
		return nil, err
	}
	out, err := c.jq.Evaluate(ctx, entry.Summary, scope.Data())
	if err != nil {
		return nil, withStep(err, id)
	}
	return out, nil
}

// Summaries evaluates Summarize for every step in state that has a summary
// and a payload.
func (c *Catalog) Summaries(ctx context.Context, state pipeline.State) (map[schema.StepID]any, error) {
	out := make(map[schema.StepID]any, len(state.Steps))
	for _, st := range state.Steps {
		if st.Data == nil || c.entries[st.ID].Summary == "" {
			continue
		}
		v, err := c.Summarize(ctx, state, st.ID)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[st.ID] = v
		}
	}
	return out, nil
}

// Escalate reports whether the failure of step id should fail the whole run.
// It is false unless the step is in the error state and its escalate_when
// condition holds. The reducer never escalates on its own; the caller decides
// whether to dispatch Fail.
func (c *Catalog) Escalate(ctx context.Context, options map[string]any, state pipeline.State, id schema.StepID) (bool, error) {
	entry, ok := c.entries[id]
	if !ok || entry.EscalateWhen == "" {
		return false, nil
	}
	step, ok := state.Step(id)
	if !ok || step.Status != schema.StepError {
		return false, nil
	}
	scope, err := expressions.StepScope(options, state, id)
	if err != nil {
		return false, err
	}
	escalate, err := expressions.EvaluateBool(ctx, c.expr, entry.EscalateWhen, scope.Data())
	if err != nil {
		return false, withStep(err, id)
	}
	return escalate, nil
}

func withStep(err error, id schema.StepID) error {
	var te *schema.TraceError
	if errors.As(err, &te) && te.StepID == "" {
		te.WithStep(id)
	}
	return err
}
