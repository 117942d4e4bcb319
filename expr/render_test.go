package expr

import (
	"errors"
	"testing"
)

// stubEvaluator looks up expression verbatim in a table, so render tests
// don't depend on the CEL evaluator's grammar.
type stubEvaluator struct {
	values map[string]any
	errs   map[string]error
}

func (s *stubEvaluator) Evaluate(expression string, _ map[string]any) (any, error) {
	if err, ok := s.errs[expression]; ok {
		return nil, err
	}
	if v, ok := s.values[expression]; ok {
		return v, nil
	}
	return nil, errors.New("undefined: " + expression)
}

func TestRender_WholeExpressionPreservesType(t *testing.T) {
	ev := &stubEvaluator{values: map[string]any{"ctx.count": 42}}

	out, err := Render(ev, "{{ ctx.count }}", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != 42 {
		t.Fatalf("out = %v (%T), want int 42", out, out)
	}
}

func TestRender_MixedTextConcatenates(t *testing.T) {
	ev := &stubEvaluator{values: map[string]any{"ctx.name": "river"}}

	out, err := Render(ev, "hello {{ ctx.name }}!", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "hello river!" {
		t.Fatalf("out = %q", out)
	}
}

func TestRender_RecursesOnExpressionValuedString(t *testing.T) {
	ev := &stubEvaluator{values: map[string]any{
		"ctx.indirect": "{{ ctx.final }}",
		"ctx.final":    "done",
	}}

	out, err := Render(ev, "{{ ctx.indirect }}", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "done" {
		t.Fatalf("out = %v", out)
	}
}

func TestRender_Map(t *testing.T) {
	ev := &stubEvaluator{values: map[string]any{"ctx.x": 1}}

	out, err := Render(ev, map[string]any{
		"a": "{{ ctx.x }}",
		"b": "literal",
	}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	m := out.(map[string]any)
	if m["a"] != 1 || m["b"] != "literal" {
		t.Fatalf("m = %+v", m)
	}
}

func TestRender_ErrorPropagates(t *testing.T) {
	ev := &stubEvaluator{errs: map[string]error{"bad": errors.New("boom")}}

	_, err := Render(ev, "{{ bad }}", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *EvaluationError, got %T", err)
	}
	if evalErr.Expression != "bad" {
		t.Fatalf("Expression = %q", evalErr.Expression)
	}
}

func TestRender_NoMarkersPassesThrough(t *testing.T) {
	ev := &stubEvaluator{}
	out, err := Render(ev, "plain string", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "plain string" {
		t.Fatalf("out = %q", out)
	}
}
