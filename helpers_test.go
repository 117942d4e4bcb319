package orquesta

import (
	"testing"

	"github.com/nmaludy/orquesta-go/expr"
	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/states"
	"github.com/nmaludy/orquesta-go/wfspec"
)

// newRunningConductor builds a Conductor over a LiteralSpec/LiteralComposer
// pair and drives the workflow state machine to Running, the precondition
// every public scheduling method assumes.
func newRunningConductor(t *testing.T, tasks []wfspec.LiteralTask) *Conductor {
	t.Helper()

	spec := wfspec.NewLiteralSpec("test", expr.NewCELEvaluator(), tasks, map[string]any{}, map[string]any{}, map[string]any{})
	c, err := New(spec, wfspec.LiteralComposer{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.RequestWorkflowState(states.Requested); err != nil {
		t.Fatalf("request Requested: %v", err)
	}
	if err := c.RequestWorkflowState(states.Running); err != nil {
		t.Fatalf("request Running: %v", err)
	}
	return c
}

// completeTask drives taskID through the normal scheduled -> started ->
// succeeded sequence and returns the final flow entry.
func completeTask(t *testing.T, c *Conductor, taskID string) *flow.Entry {
	t.Helper()

	var entry *flow.Entry
	for _, kind := range []states.TaskEventKind{states.TaskScheduled, states.TaskStarted, states.TaskSucceeded} {
		e, err := c.UpdateTaskFlow(taskID, states.TaskEvent{Kind: kind})
		if err != nil {
			t.Fatalf("UpdateTaskFlow(%s, %s): %v", taskID, kind, err)
		}
		entry = e
	}
	return entry
}

func descriptorIDs(descs []TaskDescriptor) []string {
	ids := make([]string, len(descs))
	for i, d := range descs {
		ids[i] = d.ID
	}
	return ids
}

func descriptorNames(descs []TaskDescriptor) []string {
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}
