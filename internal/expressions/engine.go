package expressions

import (
	"context"

	"github.com/rendis/pipetrace/pkg/schema"
)

// Engine evaluates catalog expressions.
// Three implementations: CEL (enablement), Expr (escalation), GoJQ (summaries).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// EvaluateBool evaluates expression and requires a boolean result.
func EvaluateBool(ctx context.Context, e Engine, expression string, data map[string]any) (bool, error) {
	out, err := e.Evaluate(ctx, expression, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s expression %q must evaluate to a boolean, got %T", e.Name(), expression, out).
			WithDetails(map[string]any{"expression": expression, "engine": e.Name()})
	}
	return b, nil
}

// Checker is implemented by engines that can compile an expression without
// evaluating it.
type Checker interface {
	Check(expression string) error
}
