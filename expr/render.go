package expr

import (
	"fmt"
	"strings"
)

// maxRenderDepth bounds the "an expression whose value is itself an
// expression string re-evaluates against the same context" recursion
// (spec §4.5), protecting against an evaluator that never converges.
const maxRenderDepth = 10

const (
	openMarker  = "{{"
	closeMarker = "}}"
)

// Render walks v (which may be a string, a map[string]any, a []any, or any
// JSON scalar) and evaluates every "{{ expr }}" segment found in string
// leaves against ctx, recursively re-evaluating a result that is itself a
// fully-interpolated expression string, up to maxRenderDepth.
//
// A string leaf containing exactly one interpolation marker spanning its
// full (trimmed) length evaluates to the expression's native value (so an
// expression yielding a number, bool, or map is not coerced to a string); a
// string mixing literal text with one or more markers evaluates each marker
// and concatenates the results as text.
func Render(ev Evaluator, v any, ctx map[string]any) (any, error) {
	switch val := v.(type) {
	case string:
		return renderString(ev, val, ctx, 0)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			rendered, err := Render(ev, elem, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			rendered, err := Render(ev, elem, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

func renderString(ev Evaluator, s string, ctx map[string]any, depth int) (any, error) {
	if depth >= maxRenderDepth {
		return s, nil
	}

	if !strings.Contains(s, openMarker) {
		return s, nil
	}

	if whole, ok := wholeExpression(s); ok {
		val, err := ev.Evaluate(whole, ctx)
		if err != nil {
			return nil, &EvaluationError{Expression: whole, Cause: err}
		}
		if nested, ok := val.(string); ok && strings.Contains(nested, openMarker) {
			return renderString(ev, nested, ctx, depth+1)
		}
		return val, nil
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, openMarker)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.Index(rest[start:], closeMarker)
		if end < 0 {
			b.WriteString(rest)
			break
		}
		end += start

		b.WriteString(rest[:start])
		expression := strings.TrimSpace(rest[start+len(openMarker) : end])

		val, err := ev.Evaluate(expression, ctx)
		if err != nil {
			return nil, &EvaluationError{Expression: expression, Cause: err}
		}
		b.WriteString(toText(val))

		rest = rest[end+len(closeMarker):]
	}

	rendered := b.String()
	if rendered != s && strings.Contains(rendered, openMarker) {
		return renderString(ev, rendered, ctx, depth+1)
	}
	return rendered, nil
}

// wholeExpression reports whether s, once trimmed, is exactly one
// "{{ expr }}" marker with nothing else around it, returning the inner
// expression text.
func wholeExpression(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, openMarker) || !strings.HasSuffix(trimmed, closeMarker) {
		return "", false
	}
	inner := trimmed[len(openMarker) : len(trimmed)-len(closeMarker)]
	if strings.Contains(inner, openMarker) || strings.Contains(inner, closeMarker) {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

func toText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
