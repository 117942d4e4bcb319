package states

import "testing"

type fakeFlow struct {
	active    bool
	staged    bool
	pausing   bool
	paused    bool
	canceling bool
	canceled  bool
	inState   map[State]bool
}

func (f *fakeFlow) HasActiveTasks() bool    { return f.active }
func (f *fakeFlow) HasStagedTasks() bool    { return f.staged }
func (f *fakeFlow) HasPausingTasks() bool   { return f.pausing }
func (f *fakeFlow) HasPausedTasks() bool    { return f.paused }
func (f *fakeFlow) HasCancelingTasks() bool { return f.canceling }
func (f *fakeFlow) HasCanceledTasks() bool  { return f.canceled }
func (f *fakeFlow) HasTasksInState(s State) bool {
	return f.inState[s]
}

func TestWorkflowStateMachine_DirectRequest(t *testing.T) {
	m := WorkflowStateMachine{}

	got := m.Process(Unset, WorkflowExecutionEvent{Desired: Requested}, &fakeFlow{})
	if got != Requested {
		t.Fatalf("Unset->Requested = %q", got)
	}

	got = m.Process(Requested, WorkflowExecutionEvent{Desired: Running}, &fakeFlow{})
	if got != Running {
		t.Fatalf("Requested->Running = %q", got)
	}
}

func TestWorkflowStateMachine_IllegalDirectRequestIsNoOp(t *testing.T) {
	m := WorkflowStateMachine{}

	got := m.Process(Unset, WorkflowExecutionEvent{Desired: Succeeded}, &fakeFlow{})
	if got != Unset {
		t.Fatalf("illegal request mutated state to %q", got)
	}
}

func TestWorkflowStateMachine_SucceedsWhenNoWorkLeft(t *testing.T) {
	m := WorkflowStateMachine{}
	fl := &fakeFlow{active: false, staged: false, inState: map[State]bool{}}

	got := m.Process(Running, TaskExecutionEvent{TaskID: "t3", NewTaskState: Succeeded}, fl)
	if got != Succeeded {
		t.Fatalf("got %q, want %q", got, Succeeded)
	}
}

func TestWorkflowStateMachine_StaysRunningWhileWorkRemains(t *testing.T) {
	m := WorkflowStateMachine{}
	fl := &fakeFlow{active: true, inState: map[State]bool{}}

	got := m.Process(Running, TaskExecutionEvent{TaskID: "t1", NewTaskState: Succeeded}, fl)
	if got != Running {
		t.Fatalf("got %q, want %q", got, Running)
	}
}

func TestWorkflowStateMachine_FailsOnFailedTaskWithNoRemainingWork(t *testing.T) {
	m := WorkflowStateMachine{}
	fl := &fakeFlow{active: false, staged: false, inState: map[State]bool{Failed: true}}

	got := m.Process(Running, TaskExecutionEvent{TaskID: "t2", NewTaskState: Failed}, fl)
	if got != Failed {
		t.Fatalf("got %q, want %q", got, Failed)
	}
}

func TestWorkflowStateMachine_CompletedStateIsSticky(t *testing.T) {
	m := WorkflowStateMachine{}
	fl := &fakeFlow{}

	got := m.Process(Succeeded, TaskExecutionEvent{TaskID: "t1", NewTaskState: Succeeded}, fl)
	if got != Succeeded {
		t.Fatalf("got %q, want %q", got, Succeeded)
	}

	got = m.Process(Succeeded, WorkflowExecutionEvent{Desired: Failed}, fl)
	if got != Succeeded {
		t.Fatalf("got %q, want %q (completed states don't accept direct requests)", got, Succeeded)
	}
}
