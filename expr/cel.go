package expr

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELEvaluator is the reference Evaluator implementation, backed by
// github.com/google/cel-go. orquesta.New uses it as the default evaluator
// unless WithEvaluator supplies another one; the conductor's scheduling code
// calls it only through the Evaluator interface. It is the evaluator this
// module ships and tests against.
//
// Every context variable is declared to CEL with cel.DynType, since the
// context map is untyped JSON-shaped data whose key set varies per
// workflow and per call.
type CELEvaluator struct{}

// NewCELEvaluator returns a ready-to-use CEL-backed Evaluator.
func NewCELEvaluator() *CELEvaluator {
	return &CELEvaluator{}
}

// Evaluate compiles expression against the variable declarations implied by
// ctx's keys and evaluates it, returning the resulting native Go value.
func (c *CELEvaluator) Evaluate(expression string, ctx map[string]any) (any, error) {
	opts := make([]cel.EnvOption, 0, len(ctx))
	for k := range ctx {
		opts = append(opts, cel.Variable(k, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("cel: failed to build environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel: failed to compile %q: %w", expression, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel: failed to build program for %q: %w", expression, err)
	}

	out, _, err := program.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("cel: evaluation of %q failed: %w", expression, err)
	}

	return out.Value(), nil
}
