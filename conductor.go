// Package orquesta implements a workflow conductor: a pure decision engine
// that, given a graph of tasks and a runtime execution ledger, decides which
// tasks run next, advances coupled task/workflow state machines on external
// events, propagates context across transitions and joins, and renders a
// terminal output. It never executes a task itself; callers report task
// completion via UpdateTaskFlow and harvest GetNextTasks.
package orquesta

import (
	"github.com/nmaludy/orquesta-go/emit"
	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/graph"
	"github.com/nmaludy/orquesta-go/metrics"
	"github.com/nmaludy/orquesta-go/states"
	"github.com/nmaludy/orquesta-go/store"
	"github.com/nmaludy/orquesta-go/wfspec"
)

// reservedNoop and reservedFail are task names the conductor treats
// specially: noop auto-completes without ever being returned as a
// descriptor; fail auto-fails, driving the workflow to FAILED.
const (
	reservedNoop = "noop"
	reservedFail = "fail"
)

// Conductor is the decision engine tying a Spec, its composed Graph, and its
// TaskFlow ledger together. A Conductor is a single-writer object: every
// public method runs synchronously to completion and mutates only this
// instance's own fields. Concurrent callers must serialize access with an
// external mutex.
type Conductor struct {
	spec     wfspec.Spec
	composer wfspec.Composer

	workflowState states.State
	graph         *graph.Graph
	flow          *flow.TaskFlow
	parentCtx     map[string]any
	inputs        map[string]any
	outputs       map[string]any
	errors        []ErrorEntry

	runID     string
	emitter   emit.Emitter
	metrics   metrics.Recorder
	store     store.ConductorStore
	evaluator expr.Evaluator
}

// ErrorEntry is one entry in Conductor.Errors(): a captured evaluator or
// rendering failure, never raised to the caller directly (spec §7).
type ErrorEntry struct {
	Message          string `json:"message"`
	TaskID           string `json:"task_id,omitempty"`
	TaskTransitionID string `json:"task_transition_id,omitempty"`
}

// New constructs a Conductor for spec, composing its graph lazily on first
// access. context is the parent workflow's context (for sub-workflows),
// inputs are the caller-supplied workflow inputs; both default to empty maps.
func New(spec wfspec.Spec, composer wfspec.Composer, context, inputs map[string]any, opts ...Option) (*Conductor, error) {
	if spec == nil {
		return nil, newInvalidArgument("spec must not be nil")
	}
	if composer == nil {
		return nil, newInvalidArgument("composer must not be nil")
	}

	c := &Conductor{
		spec:          spec,
		composer:      composer,
		workflowState: states.Unset,
		parentCtx:     cloneOrEmpty(context),
		inputs:        cloneOrEmpty(inputs),
		emitter:       emit.NewNullEmitter(),
		metrics:       metrics.NewNoop(),
		evaluator:     expr.NewCELEvaluator(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Restore rebuilds a Conductor's internal state from already-deserialized
// components, as Deserialize does after parsing the wire form. graph and
// taskFlow must be non-nil; state, if non-empty, must be a recognized state.
func (c *Conductor) Restore(g *graph.Graph, state states.State, errs []ErrorEntry, taskFlow *flow.TaskFlow, inputs, outputs, context map[string]any) error {
	if g == nil {
		return newInvalidArgument("graph must not be nil")
	}
	if taskFlow == nil {
		return newInvalidArgument("flow must not be nil")
	}
	if state != "" && !states.IsValid(state) {
		return &ConductorError{Code: ErrInvalidState, Message: "unrecognized workflow state", TaskID: ""}
	}

	c.graph = g
	c.flow = taskFlow
	c.workflowState = state
	c.parentCtx = cloneOrEmpty(context)
	c.inputs = cloneOrEmpty(inputs)
	c.outputs = outputs
	c.errors = errs

	return nil
}

func cloneOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return flow.CloneValue(m)
}

// Graph returns the conductor's composed graph, composing it from the spec
// on first access and memoizing the result.
func (c *Conductor) Graph() (*graph.Graph, error) {
	if c.graph == nil {
		g, err := c.composer.Compose(c.spec)
		if err != nil {
			return nil, err
		}
		c.graph = g
	}
	return c.graph, nil
}

// Flow returns the conductor's task flow ledger, initializing it on first
// access per spec.md §4.4.1: render inputs/vars, merge with the parent
// context, push the initial context entry, and stage every graph root.
// The returned ledger is the conductor's own, not a copy: changes made
// through it change the conductor's state.
func (c *Conductor) Flow() (*flow.TaskFlow, error) {
	if c.flow != nil {
		return c.flow, nil
	}

	c.flow = flow.New()

	g, err := c.Graph()
	if err != nil {
		return nil, err
	}

	renderedInputs, inputErrs := c.spec.RenderInput(c.GetWorkflowInput())
	renderedVars, varErrs := c.spec.RenderVars(renderedInputs)

	var renderErrs []error
	renderErrs = append(renderErrs, inputErrs...)
	renderErrs = append(renderErrs, varErrs...)

	if len(renderErrs) > 0 {
		c.logErrors(renderErrs, "", "")
		c.RequestWorkflowState(states.Failed)
	}

	if !states.AbendedStates.Has(c.GetWorkflowState()) {
		initCtx := flow.MergeDicts(renderedInputs, renderedVars, true)
		initCtx = flow.MergeDicts(initCtx, c.GetWorkflowParentContext(), true)

		c.flow.AppendContext(&flow.ContextEntry{Srcs: []int{}, Value: initCtx})

		for _, root := range g.Roots() {
			c.flow.Staged[root.ID] = &flow.Staged{Ctxs: []int{0}, Ready: true}
		}
	}

	return c.flow, nil
}

// Errors returns the captured error log.
func (c *Conductor) Errors() []ErrorEntry {
	out := make([]ErrorEntry, len(c.errors))
	copy(out, c.errors)
	return out
}

// LogError appends a single captured error entry.
func (c *Conductor) LogError(message, taskID, taskTransitionID string) {
	entry := ErrorEntry{Message: message}
	if taskID != "" {
		entry.TaskID = taskID
	}
	if taskTransitionID != "" {
		entry.TaskTransitionID = taskTransitionID
	}
	c.errors = append(c.errors, entry)
	c.metrics.IncError(c.runID)
	meta := map[string]any{"error": message}
	if taskTransitionID != "" {
		meta["transition_id"] = taskTransitionID
	}
	c.emitter.Emit(emit.Event{RunID: c.runID, TaskID: taskID, Msg: "error", Meta: meta})
}

// LogErrors appends one captured error entry per err.
func (c *Conductor) LogErrors(errs []error, taskID, taskTransitionID string) {
	for _, err := range errs {
		c.LogError(err.Error(), taskID, taskTransitionID)
	}
}

func (c *Conductor) logErrors(errs []error, taskID, taskTransitionID string) {
	c.LogErrors(errs, taskID, taskTransitionID)
}

// GetWorkflowParentContext returns a deep copy of the parent workflow context.
func (c *Conductor) GetWorkflowParentContext() map[string]any {
	return flow.CloneValue(c.parentCtx)
}

// GetWorkflowInput returns a deep copy of the caller-supplied workflow inputs.
func (c *Conductor) GetWorkflowInput() map[string]any {
	return flow.CloneValue(c.inputs)
}

// GetWorkflowOutput returns a deep copy of the rendered workflow outputs, or
// nil if the workflow has not yet rendered output.
func (c *Conductor) GetWorkflowOutput() map[string]any {
	if c.outputs == nil {
		return nil
	}
	return flow.CloneValue(c.outputs)
}

// GetWorkflowState returns the conductor's current workflow state.
func (c *Conductor) GetWorkflowState() states.State {
	return c.workflowState
}

// RequestWorkflowState asks the workflow state machine to move to desired.
// If the machine silently declines (state unchanged though a real change was
// requested), it returns *ConductorError with ErrInvalidWorkflowStateTransition.
//
// A direct request never consults the flow ledger (WorkflowStateMachine only
// reads FlowView for task-driven events, not direct requests), so this does
// not force Flow()'s lazy initialization — important since Flow() itself
// calls RequestWorkflowState(Failed) on a render error, and forcing
// initialization here would recurse back into an unfinished Flow().
func (c *Conductor) RequestWorkflowState(desired states.State) error {
	current := c.GetWorkflowState()

	next := states.WorkflowStateMachine{}.Process(current, states.WorkflowExecutionEvent{Desired: desired}, nil)
	c.workflowState = next

	if desired != current && current == next {
		return newInvalidWorkflowStateTransition(current, desired)
	}

	c.emitter.Emit(emit.Event{RunID: c.runID, Msg: "workflow_state_changed", Meta: map[string]any{"from": string(current), "to": string(next)}})

	return nil
}

// GetWorkflowInitialContext returns a deep copy of context index 0, the
// context assembled from rendered inputs/vars/parent-context at flow
// initialization.
func (c *Conductor) GetWorkflowInitialContext() (map[string]any, error) {
	fl, err := c.Flow()
	if err != nil {
		return nil, err
	}
	if len(fl.Contexts) == 0 {
		return nil, newWorkflowContextError("workflow has no initial context")
	}
	return flow.CloneValue(fl.Contexts[0].Value), nil
}

// getWorkflowTerminalContextIdx returns the index of the unique context
// entry with Term == true, and whether one was found. Index 0 can never be
// the match in practice: it is always the initial, non-terminal context.
func (c *Conductor) getWorkflowTerminalContextIdx() (int, bool, error) {
	found := -1
	count := 0

	for i, entry := range c.flow.Contexts {
		if entry.Term {
			found = i
			count++
		}
	}

	if count == 0 {
		return 0, false, nil
	}
	if count > 1 {
		return 0, false, newWorkflowContextError("more than one terminal workflow context found")
	}

	return found, true, nil
}

// GetWorkflowTerminalContext returns a deep copy of the unique terminal
// context entry's value. It fails if the workflow is not completed or no
// terminal context exists yet.
func (c *Conductor) GetWorkflowTerminalContext() (map[string]any, error) {
	if !states.CompletedStates.Has(c.GetWorkflowState()) {
		return nil, newWorkflowContextError("workflow is not in a completed state")
	}

	idx, ok, err := c.getWorkflowTerminalContextIdx()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newWorkflowContextError("unable to determine the terminal workflow context")
	}

	return flow.CloneValue(c.flow.Contexts[idx].Value), nil
}
