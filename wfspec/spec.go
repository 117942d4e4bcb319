// Package wfspec defines the external collaborator contract spec.md §1
// treats as out of scope to implement: the shape of a workflow Spec (tasks
// table, input/var/output rendering) and the Composer that turns a Spec into
// a graph.Graph. The conductor package depends only on these interfaces.
package wfspec

import "github.com/nmaludy/orquesta-go/graph"

// FinalizeFunc is the per-edge hook a task spec supplies to rewrite the
// outgoing context when one of its transitions fires (spec §4.4.6 step 4).
// ctx is already a deep copy; the function is free to mutate and return it.
type FinalizeFunc func(nextTaskName string, criteria []string, ctx map[string]any) (map[string]any, []error)

// TaskSpec is one entry in a Spec's tasks table: an un-rendered action/input
// expression pair plus the finalizer used when evaluating outbound
// transitions for this task.
type TaskSpec struct {
	Name     string
	Action   any
	Input    map[string]any
	Finalize FinalizeFunc
}

// Tasks is the tasks table a Spec exposes.
type Tasks interface {
	GetTask(name string) (TaskSpec, error)
}

// Spec is the contract the conductor depends on for everything input/var/
// output rendering related. Parsing workflow definitions from source text
// into a Spec is explicitly out of scope (spec.md §1).
type Spec interface {
	// Catalog names the spec dialect/catalog, carried through
	// serialization so a deserializer can pick the right spec/composer
	// implementation.
	Catalog() string

	Tasks() Tasks

	// RenderInput renders the workflow's declared inputs against the
	// caller-supplied inputs, returning the merged/defaulted result.
	RenderInput(callerInputs map[string]any) (map[string]any, []error)

	// RenderVars renders the workflow's declared vars against the
	// already-rendered inputs.
	RenderVars(renderedInputs map[string]any) (map[string]any, []error)

	// RenderOutput renders the workflow's declared outputs against the
	// terminal context value.
	RenderOutput(terminalCtx map[string]any) (map[string]any, []error)
}

// Composer turns a Spec into the graph.Graph the conductor schedules over.
// Composition is a pure function of the spec; the conductor calls it at
// most once per instance, memoizing the result.
type Composer interface {
	Compose(spec Spec) (*graph.Graph, error)
}
