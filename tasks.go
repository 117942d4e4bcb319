package orquesta

import (
	"sort"

	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/states"
)

const currentTaskKey = "__current_task"

// GetTaskInitialContext returns the context entry a task id would run
// against right now: its flow entry's recorded context if it already has
// one, else the converged value of its staged contexts. It errors if task_id
// is neither staged nor recorded.
func (c *Conductor) GetTaskInitialContext(taskID string) (*flow.ContextEntry, error) {
	fl, err := c.Flow()
	if err != nil {
		return nil, err
	}

	if entry, ok := fl.GetEntry(taskID); ok {
		return flow.CloneContext(fl.Contexts[entry.Ctx]), nil
	}

	if staged, ok := fl.Staged[taskID]; ok {
		return c.convergeTaskContexts(staged.Ctxs), nil
	}

	return nil, newWorkflowContextError("unable to determine context for task %q", taskID)
}

// convergeTaskContexts implements the original's converge_task_contexts:
// when every staged index is identical, reuse that context entry untouched;
// otherwise deep-merge all the values (later wins) and union their srcs.
func (c *Conductor) convergeTaskContexts(ctxIdxs []int) *flow.ContextEntry {
	if len(ctxIdxs) == 0 || allSame(ctxIdxs) {
		return flow.CloneContext(c.flow.Contexts[ctxIdxs[0]])
	}

	seen := make(map[int]struct{})
	var srcs []int
	merged := map[string]any{}

	for _, idx := range ctxIdxs {
		entry := c.flow.Contexts[idx]
		merged = flow.MergeDicts(merged, flow.CloneValue(entry.Value), true)
		for _, s := range entry.Srcs {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				srcs = append(srcs, s)
			}
		}
	}

	sort.Ints(srcs)
	return &flow.ContextEntry{Srcs: srcs, Value: merged}
}

func allSame(xs []int) bool {
	for _, x := range xs {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// GetTask builds the task descriptor for taskID: its initial context (or
// context index 0 if none can be determined), with __current_task injected,
// and its action/input rendered through the evaluator.
func (c *Conductor) GetTask(taskID string) (TaskDescriptor, error) {
	g, err := c.Graph()
	if err != nil {
		return TaskDescriptor{}, err
	}

	node, ok := g.GetTask(taskID)
	if !ok {
		return TaskDescriptor{}, newInvalidTask(taskID)
	}

	taskCtxEntry, err := c.GetTaskInitialContext(taskID)
	if err != nil {
		initCtx, initErr := c.GetWorkflowInitialContext()
		if initErr != nil {
			return TaskDescriptor{}, initErr
		}
		taskCtxEntry = &flow.ContextEntry{Value: initCtx}
	}

	taskCtx := flow.CloneValue(taskCtxEntry.Value)
	taskCtx[currentTaskKey] = map[string]any{"id": taskID, "name": node.Name}

	taskSpec, specErr := c.spec.Tasks().GetTask(node.Name)
	if specErr != nil {
		return TaskDescriptor{}, specErr
	}

	renderedAction, err := expr.Render(c.evaluator, taskSpec.Action, taskCtx)
	if err != nil {
		return TaskDescriptor{}, err
	}

	renderedInput, err := renderInputMap(c.evaluator, taskSpec.Input, taskCtx)
	if err != nil {
		return TaskDescriptor{}, err
	}

	return TaskDescriptor{
		ID:     taskID,
		Name:   node.Name,
		Ctx:    taskCtx,
		Action: renderedAction,
		Input:  renderedInput,
	}, nil
}

func renderInputMap(ev expr.Evaluator, input map[string]any, ctx map[string]any) (map[string]any, error) {
	if input == nil {
		return nil, nil
	}
	rendered, err := expr.Render(ev, input, ctx)
	if err != nil {
		return nil, err
	}
	return rendered.(map[string]any), nil
}

// GetStartTasks returns the task descriptors for every graph root, sorted by
// name, provided the workflow is currently running. Any descriptor-build
// error is logged and fails the workflow; the task is skipped.
func (c *Conductor) GetStartTasks() ([]TaskDescriptor, error) {
	if !states.RunningWorkflowStates.Has(c.GetWorkflowState()) {
		return nil, nil
	}

	g, err := c.Graph()
	if err != nil {
		return nil, err
	}

	var out []TaskDescriptor
	for _, root := range g.Roots() {
		desc, err := c.GetTask(root.ID)
		if err != nil {
			c.LogError(err.Error(), root.ID, "")
			if reqErr := c.RequestWorkflowState(states.Failed); reqErr != nil {
				return nil, reqErr
			}
			continue
		}
		out = append(out, desc)
	}

	if states.CompletedStates.Has(c.GetWorkflowState()) {
		return nil, nil
	}

	sortDescriptorsByName(out)
	return out, nil
}

// HasNextTasks reports whether any task is ready to run: every staged task
// with a satisfied barrier, when taskID is empty, or taskID's outbound
// transitions whose destination's inbound barrier is already satisfied.
func (c *Conductor) HasNextTasks(taskID string) (bool, error) {
	if taskID == "" {
		fl, err := c.Flow()
		if err != nil {
			return false, err
		}
		return fl.HasStagedTasks(), nil
	}

	g, err := c.Graph()
	if err != nil {
		return false, err
	}

	for _, t := range g.GetNextTransitions(taskID) {
		ok, err := c.inboundCriteriaSatisfied(t.Dst)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// GetNextTasks returns the task descriptors ready to run. With an empty
// taskID it returns every ready staged task; with a taskID it returns the
// descriptors reachable from that (already-completed) task's satisfied
// outbound transitions, skipping unmet criteria, unmet inbound barriers, and
// the reserved "noop" destination.
func (c *Conductor) GetNextTasks(taskID string) ([]TaskDescriptor, error) {
	if !states.RunningWorkflowStates.Has(c.GetWorkflowState()) {
		return nil, nil
	}

	fl, err := c.Flow()
	if err != nil {
		return nil, err
	}

	var out []TaskDescriptor

	if taskID == "" {
		for _, stagedID := range fl.GetStagedTasks() {
			desc, err := c.GetTask(stagedID)
			if err != nil {
				c.LogError(err.Error(), stagedID, "")
				if reqErr := c.RequestWorkflowState(states.Failed); reqErr != nil {
					return nil, reqErr
				}
				continue
			}
			out = append(out, desc)
		}
	} else {
		entry, ok := fl.GetEntry(taskID)
		if !ok || !states.CompletedStates.Has(entry.State) {
			return nil, nil
		}

		g, err := c.Graph()
		if err != nil {
			return nil, err
		}

		for _, t := range g.GetNextTransitions(taskID) {
			if !entry.GetTransition(t.ID()) {
				continue
			}

			ready, err := c.inboundCriteriaSatisfied(t.Dst)
			if err != nil {
				return nil, err
			}
			if !ready {
				continue
			}

			nextNode, ok := g.GetTask(t.Dst)
			if !ok {
				continue
			}
			if nextNode.Name == reservedNoop {
				continue
			}

			desc, err := c.GetTask(t.Dst)
			if err != nil {
				c.LogError(err.Error(), t.Dst, "")
				if reqErr := c.RequestWorkflowState(states.Failed); reqErr != nil {
					return nil, reqErr
				}
				continue
			}
			out = append(out, desc)
		}
	}

	if states.CompletedStates.Has(c.GetWorkflowState()) {
		return nil, nil
	}

	sortDescriptorsByName(out)
	return out, nil
}

// inboundCriteriaSatisfied implements spec §4.4.5: count the distinct
// satisfied inbound transitions into dst and compare against its barrier
// (default 1, or the inbound count for an "all" barrier).
func (c *Conductor) inboundCriteriaSatisfied(dst string) (bool, error) {
	g, err := c.Graph()
	if err != nil {
		return false, err
	}
	fl, err := c.Flow()
	if err != nil {
		return false, err
	}

	inbound := g.GetPrevTransitions(dst)

	barrier := 1
	if b, ok := g.GetBarrier(dst); ok {
		if b.All {
			barrier = len(inbound)
		} else {
			barrier = b.Count
		}
	}

	satisfied := 0
	for _, t := range inbound {
		prevEntry, ok := fl.GetEntry(t.Src)
		if !ok {
			continue
		}
		if prevEntry.GetTransition(t.ID()) {
			satisfied++
		}
	}

	return satisfied >= barrier, nil
}

// GetTaskTransitionContexts returns, for a completed task, the map of
// "<dst>__<key>" transition ids that evaluated true to the context that
// would be handed to that destination.
func (c *Conductor) GetTaskTransitionContexts(taskID string) (map[string]*flow.ContextEntry, error) {
	fl, err := c.Flow()
	if err != nil {
		return nil, err
	}

	entry, ok := fl.GetEntry(taskID)
	if !ok {
		return nil, newInvalidTaskFlowEntry(taskID)
	}

	g, err := c.Graph()
	if err != nil {
		return nil, err
	}

	out := make(map[string]*flow.ContextEntry)
	for _, t := range g.GetNextTransitions(taskID) {
		id := t.ID()
		if entry.GetTransition(id) {
			ctxEntry, err := c.GetTaskInitialContext(t.Dst)
			if err != nil {
				return nil, err
			}
			out[id] = ctxEntry
		}
	}

	return out, nil
}

func sortDescriptorsByName(descs []TaskDescriptor) {
	sort.SliceStable(descs, func(i, j int) bool {
		return descs[i].Name < descs[j].Name
	})
}
