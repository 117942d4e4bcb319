package wfspec

import (
	"fmt"

	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/graph"
)

// LiteralTransition is one outbound edge in a LiteralTask definition.
type LiteralTransition struct {
	To       string
	Criteria []string
}

// LiteralTask is a task definition built directly in Go, bypassing any
// source-text parser — the composition path tests and small embedded
// workflows use when there's no Spec loader in the picture.
type LiteralTask struct {
	ID          string
	Name        string
	Action      any
	Input       map[string]any
	Barrier     *graph.Barrier
	Transitions []LiteralTransition
	Finalize    FinalizeFunc
}

// LiteralSpec is a minimal, directly-constructed Spec + Tasks + Composer
// implementation, useful for tests and for embedding small workflows without
// a parser. Inputs/vars/outputs are expression maps rendered through the
// supplied Evaluator.
type LiteralSpec struct {
	CatalogName string
	Evaluator   expr.Evaluator
	TaskDefs    []LiteralTask
	InputDefs   map[string]any
	VarDefs     map[string]any
	OutputDefs  map[string]any

	tasks map[string]TaskSpec
}

// NewLiteralSpec builds a LiteralSpec, indexing TaskDefs by name for the
// Tasks table (task names, not ids — the same name may back multiple graph
// node ids, per spec.md §3).
func NewLiteralSpec(catalog string, ev expr.Evaluator, taskDefs []LiteralTask, inputDefs, varDefs, outputDefs map[string]any) *LiteralSpec {
	s := &LiteralSpec{
		CatalogName: catalog,
		Evaluator:   ev,
		TaskDefs:    taskDefs,
		InputDefs:   inputDefs,
		VarDefs:     varDefs,
		OutputDefs:  outputDefs,
		tasks:       make(map[string]TaskSpec, len(taskDefs)),
	}
	for _, td := range taskDefs {
		s.tasks[td.Name] = TaskSpec{Name: td.Name, Action: td.Action, Input: td.Input, Finalize: td.Finalize}
	}
	return s
}

func (s *LiteralSpec) Catalog() string { return s.CatalogName }
func (s *LiteralSpec) Tasks() Tasks    { return literalTasks(s.tasks) }

func (s *LiteralSpec) RenderInput(callerInputs map[string]any) (map[string]any, []error) {
	merged := flow.MergeDicts(s.InputDefs, callerInputs, true)
	rendered, err := expr.Render(s.Evaluator, merged, callerInputs)
	if err != nil {
		return nil, []error{err}
	}
	return rendered.(map[string]any), nil
}

func (s *LiteralSpec) RenderVars(renderedInputs map[string]any) (map[string]any, []error) {
	rendered, err := expr.Render(s.Evaluator, s.VarDefs, renderedInputs)
	if err != nil {
		return nil, []error{err}
	}
	if rendered == nil {
		return map[string]any{}, nil
	}
	return rendered.(map[string]any), nil
}

func (s *LiteralSpec) RenderOutput(terminalCtx map[string]any) (map[string]any, []error) {
	rendered, err := expr.Render(s.Evaluator, s.OutputDefs, terminalCtx)
	if err != nil {
		return nil, []error{err}
	}
	if rendered == nil {
		return map[string]any{}, nil
	}
	return rendered.(map[string]any), nil
}

type literalTasks map[string]TaskSpec

func (t literalTasks) GetTask(name string) (TaskSpec, error) {
	ts, ok := t[name]
	if !ok {
		return TaskSpec{}, fmt.Errorf("wfspec: unknown task %q", name)
	}
	return ts, nil
}

// LiteralComposer composes a LiteralSpec's TaskDefs directly into a
// graph.Graph: each LiteralTask becomes a node keyed by its own ID, and each
// LiteralTransition becomes a keyed edge, in declaration order.
type LiteralComposer struct{}

func (LiteralComposer) Compose(spec Spec) (*graph.Graph, error) {
	ls, ok := spec.(*LiteralSpec)
	if !ok {
		return nil, fmt.Errorf("wfspec: LiteralComposer requires a *LiteralSpec, got %T", spec)
	}

	g := graph.New()
	for _, td := range ls.TaskDefs {
		if err := g.AddTask(td.ID, td.Name); err != nil {
			return nil, err
		}
		if td.Barrier != nil {
			g.SetBarrier(td.ID, *td.Barrier)
		}
	}

	for _, td := range ls.TaskDefs {
		for key, tr := range td.Transitions {
			if err := g.AddTransition(td.ID, tr.To, key, tr.Criteria, nil); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
