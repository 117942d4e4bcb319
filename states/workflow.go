package states

// FlowView is the minimal read-only query surface the WorkflowStateMachine
// needs from a task flow ledger in order to decide whether a task state
// change implies a workflow state change. *flow.TaskFlow implements this.
type FlowView interface {
	HasActiveTasks() bool
	HasStagedTasks() bool
	HasPausingTasks() bool
	HasPausedTasks() bool
	HasCancelingTasks() bool
	HasCanceledTasks() bool
	HasTasksInState(State) bool
}

// WorkflowEvent is either a WorkflowExecutionEvent (a direct request) or a
// TaskExecutionEvent (a task state change that may imply a workflow state
// change).
type WorkflowEvent interface {
	isWorkflowEvent()
}

// WorkflowExecutionEvent is a direct request to move the workflow to Desired.
type WorkflowExecutionEvent struct {
	Desired State
}

func (WorkflowExecutionEvent) isWorkflowEvent() {}

// TaskExecutionEvent reports that TaskID's flow entry moved to NewTaskState.
type TaskExecutionEvent struct {
	TaskID       string
	NewTaskState State
}

func (TaskExecutionEvent) isWorkflowEvent() {}

// workflowDirectTransitions maps (current, desired) requests that the
// conductor may issue via RequestWorkflowState. A (current, desired) pair
// absent from this table — other than desired == current, which is always a
// no-op — is silently declined (WorkflowStateMachine.Process returns current
// unchanged); the conductor is responsible for treating a no-op-on-change as
// an error.
var workflowDirectTransitions = map[State]Set{
	Unset:     NewSet(Requested),
	Requested: NewSet(Running, Failed, Canceled),
	Running:   NewSet(Pausing, Canceling, Failed, Succeeded),
	Pausing:   NewSet(Paused, Canceling, Failed),
	Paused:    NewSet(Resuming, Canceling),
	Resuming:  NewSet(Running, Canceling, Failed),
	Canceling: NewSet(Canceled, Failed),
}

// WorkflowStateMachine is the transition table for the conductor's own
// workflow state. Unlike TaskStateMachine, an illegal direct request does not
// error from Process itself — it silently leaves the state unchanged. The
// conductor (the only caller of RequestWorkflowState) turns "requested a
// change, nothing happened" into InvalidWorkflowStateTransition.
type WorkflowStateMachine struct{}

// Process handles either event type and returns the resulting workflow
// state. It never mutates anything itself; callers are responsible for
// storing the returned state.
func (WorkflowStateMachine) Process(current State, event WorkflowEvent, fl FlowView) State {
	switch ev := event.(type) {
	case WorkflowExecutionEvent:
		return processDirectRequest(current, ev.Desired)
	case TaskExecutionEvent:
		return processTaskEvent(current, ev, fl)
	default:
		return current
	}
}

func processDirectRequest(current, desired State) State {
	if current == desired {
		return current
	}

	if CompletedStates.Has(current) {
		// Completed workflows are terminal; no further direct requests apply.
		return current
	}

	allowed, ok := workflowDirectTransitions[current]
	if !ok || !allowed.Has(desired) {
		return current
	}

	return desired
}

func processTaskEvent(current State, ev TaskExecutionEvent, fl FlowView) State {
	if CompletedStates.Has(current) {
		return current
	}

	if !ActiveWorkflowStates.Has(current) {
		return current
	}

	hasWork := fl.HasActiveTasks() || fl.HasStagedTasks()

	switch current {
	case Pausing:
		if !hasWork || (!fl.HasTasksInState(Running) && !fl.HasTasksInState(Scheduled) && !fl.HasTasksInState(Requested)) {
			return Paused
		}
		return current
	case Canceling:
		if !hasWork {
			return Canceled
		}
		return current
	}

	if hasWork {
		return current
	}

	// No work left to schedule: derive the terminal outcome from what the
	// flow accumulated along the way.
	switch {
	case fl.HasCanceledTasks():
		return Canceled
	case ev.NewTaskState == Failed || fl.HasTasksInState(Failed):
		return Failed
	case fl.HasPausedTasks():
		return Paused
	default:
		return Succeeded
	}
}
