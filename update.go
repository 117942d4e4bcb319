package orquesta

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/nmaludy/orquesta-go/emit"
	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/graph"
	"github.com/nmaludy/orquesta-go/states"
	"github.com/nmaludy/orquesta-go/wfspec"
)

// UpdateTaskFlow is the central decision: it records event against task_id's
// flow entry, evaluates its outbound transitions if it just completed,
// stages the tasks those transitions unlock, recurses through any reserved
// noop/fail destinations, advances the workflow state machine, and finalizes
// terminal context/output rendering once the workflow completes.
//
// taskID must be a known graph task that is either currently staged or
// already has a flow entry; violating either precondition is a raised
// *ConductorError, not a captured one.
func (c *Conductor) UpdateTaskFlow(taskID string, event states.TaskEvent) (*flow.Entry, error) {
	g, err := c.Graph()
	if err != nil {
		return nil, err
	}
	if !g.HasTask(taskID) {
		return nil, newInvalidTask(taskID)
	}

	fl, err := c.Flow()
	if err != nil {
		return nil, err
	}

	entry, hasEntry := fl.GetEntry(taskID)
	staged, isStaged := fl.Staged[taskID]

	if !isStaged && !hasEntry {
		return nil, newInvalidTaskFlowEntry(taskID)
	}

	inCtxIdx := 0

	if isStaged {
		inCtxIdxs := staged.Ctxs

		if len(inCtxIdxs) == 0 || allSame(inCtxIdxs) {
			if len(inCtxIdxs) > 0 {
				inCtxIdx = inCtxIdxs[0]
			}
		} else {
			converged := c.convergeTaskContexts(inCtxIdxs)
			inCtxIdx = fl.AppendContext(converged)
		}

		delete(fl.Staged, taskID)
	}

	if !hasEntry {
		entry = fl.AppendEntry(taskID, inCtxIdx)
	} else if g.InCycle(taskID) && states.CompletedStates.Has(entry.State) {
		entry = fl.AppendEntry(taskID, inCtxIdx)
	}

	if err := (states.TaskStateMachine{}).Process(entry, event); err != nil {
		return nil, err
	}
	c.metrics.IncTaskStateTransition(c.runID, taskID, string(entry.State))

	if states.CompletedStates.Has(entry.State) {
		if err := c.evaluateOutboundTransitions(g, fl, taskID, entry, event); err != nil {
			return nil, err
		}
	}

	wfNext := (states.WorkflowStateMachine{}).Process(c.workflowState, states.TaskExecutionEvent{TaskID: taskID, NewTaskState: entry.State}, fl)
	if wfNext != c.workflowState {
		c.emitter.Emit(emit.Event{RunID: c.runID, Msg: "workflow_state_changed", Meta: map[string]any{"from": string(c.workflowState), "to": string(wfNext)}})
	}
	c.workflowState = wfNext

	if states.CompletedStates.Has(c.workflowState) {
		taskFlowIdx, _ := fl.GetEntryIndex(taskID)
		inCtxVal := fl.Contexts[entry.Ctx].Value
		c.updateWorkflowTerminalContext(inCtxVal, taskFlowIdx)
		if err := c.renderWorkflowOutputs(); err != nil {
			return nil, err
		}
	}

	c.emitter.Emit(emit.Event{RunID: c.runID, TaskID: taskID, Msg: "task_flow_updated", Meta: map[string]any{"state": string(entry.State)}})

	return entry, nil
}

// evaluateOutboundTransitions implements spec §4.4.6 step 4: composes the
// evaluation context, handles the zero-outbound-transitions terminal-merge
// case, and for every outbound transition evaluates criteria, finalizes the
// outgoing context, stages the destination, and recurses through noop/fail.
func (c *Conductor) evaluateOutboundTransitions(g *graph.Graph, fl *flow.TaskFlow, taskID string, entry *flow.Entry, event states.TaskEvent) error {
	node, _ := g.GetTask(taskID)
	taskSpec, err := c.spec.Tasks().GetTask(node.Name)
	if err != nil {
		return err
	}

	inCtxIdx := entry.Ctx
	inCtxVal := fl.Contexts[inCtxIdx].Value

	flowAsMap, err := flowToMap(fl)
	if err != nil {
		return err
	}

	composedCtx := flow.CloneValue(inCtxVal)
	composedCtx[currentTaskKey] = map[string]any{"id": taskID, "name": node.Name, "result": event.Result}
	composedCtx = flow.MergeDicts(composedCtx, map[string]any{"__flow": flowAsMap}, true)

	transitions := g.GetNextTransitions(taskID)

	if len(transitions) == 0 {
		taskFlowIdx, _ := fl.GetEntryIndex(taskID)
		c.updateWorkflowTerminalContext(inCtxVal, taskFlowIdx)
	}

	for _, t := range transitions {
		transitionID := t.ID()

		results, evalErr := evaluateCriteria(c.evaluator, t.Criteria, composedCtx)
		if evalErr != nil {
			c.LogError(evalErr.Error(), taskID, transitionID)
			if err := c.RequestWorkflowState(states.Failed); err != nil {
				return err
			}
			continue
		}
		entry.SetTransition(transitionID, allTrue(results))

		if !entry.GetTransition(transitionID) {
			continue
		}

		nextNode, _ := g.GetTask(t.Dst)

		outCtxVal, finalizeErrs := finalizeContext(taskSpec.Finalize, nextNode.Name, t.Criteria, flow.CloneValue(composedCtx))
		if len(finalizeErrs) > 0 {
			c.LogErrors(finalizeErrs, taskID, transitionID)
			if err := c.RequestWorkflowState(states.Failed); err != nil {
				return err
			}
			continue
		}

		var outCtxIdx int
		if !valuesEqual(outCtxVal, inCtxVal) {
			taskFlowIdx, _ := fl.GetEntryIndex(taskID)
			outCtxIdx = fl.AppendContext(&flow.ContextEntry{Srcs: []int{taskFlowIdx}, Value: outCtxVal})
		} else {
			outCtxIdx = inCtxIdx
		}

		ready, err := c.inboundCriteriaSatisfied(t.Dst)
		if err != nil {
			return err
		}

		if dstStaged, ok := fl.Staged[t.Dst]; ok {
			dstStaged.Ctxs = append(dstStaged.Ctxs, outCtxIdx)
			dstStaged.Ready = ready
		} else {
			fl.Staged[t.Dst] = &flow.Staged{Ctxs: []int{outCtxIdx}, Ready: ready}
		}

		switch nextNode.Name {
		case reservedNoop:
			if _, err := c.UpdateTaskFlow(t.Dst, states.TaskEvent{Kind: states.TaskNoop}); err != nil {
				return err
			}
		case reservedFail:
			if _, err := c.UpdateTaskFlow(t.Dst, states.TaskEvent{Kind: states.TaskFailDirective}); err != nil {
				return err
			}
		}
	}

	return nil
}

func evaluateCriteria(ev expr.Evaluator, criteria []string, ctx map[string]any) ([]any, error) {
	out := make([]any, 0, len(criteria))
	for _, c := range criteria {
		val, err := ev.Evaluate(c, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func allTrue(results []any) bool {
	for _, r := range results {
		b, ok := r.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}

func finalizeContext(finalize wfspec.FinalizeFunc, nextName string, criteria []string, ctx map[string]any) (map[string]any, []error) {
	if finalize == nil {
		return ctx, nil
	}
	return finalize(nextName, criteria, ctx)
}

// updateWorkflowTerminalContext implements spec §4.4.7: create the terminal
// entry on first contribution, or deep-merge diff onto it (later wins) the
// first time taskFlowIdx contributes — a task flow index already recorded in
// Src is never merged twice.
func (c *Conductor) updateWorkflowTerminalContext(diff map[string]any, taskFlowIdx int) {
	idx, found, _ := c.getWorkflowTerminalContextIdx()

	if !found {
		c.flow.Contexts = append(c.flow.Contexts, &flow.ContextEntry{
			Src:   []int{taskFlowIdx},
			Term:  true,
			Value: flow.CloneValue(diff),
		})
		return
	}

	termEntry := c.flow.Contexts[idx]
	if containsInt(termEntry.Src, taskFlowIdx) {
		return
	}

	termEntry.Value = flow.MergeDicts(termEntry.Value, diff, true)
	termEntry.Src = append(termEntry.Src, taskFlowIdx)
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// renderWorkflowOutputs implements spec §4.4.7's render_workflow_outputs:
// only when the workflow has succeeded and outputs are not yet rendered.
func (c *Conductor) renderWorkflowOutputs() error {
	if c.workflowState != states.Succeeded || c.outputs != nil {
		return nil
	}

	termCtx, err := c.GetWorkflowTerminalContext()
	if err != nil {
		return err
	}

	outputs, errs := c.spec.RenderOutput(termCtx)
	if len(errs) > 0 {
		c.LogErrors(errs, "", "")
		return c.RequestWorkflowState(states.Failed)
	}

	if !states.AbendedStates.Has(c.workflowState) && len(outputs) > 0 {
		c.outputs = outputs
	}

	return nil
}

func flowToMap(fl *flow.TaskFlow) (map[string]any, error) {
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func valuesEqual(a, b map[string]any) bool {
	ab, err1 := canonicalJSON(a)
	bb, err2 := canonicalJSON(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func canonicalJSON(v map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make(map[string]any, len(v))
	for _, k := range keys {
		ordered[k] = v[k]
	}
	return json.Marshal(ordered)
}
