package states

// TaskEventKind identifies the kind of execution event reported for a task.
// Events are produced by the external executor (action scheduled, started,
// succeeded, ...) or synthesized by the conductor itself for the reserved
// "noop" and "fail" tasks.
type TaskEventKind string

const (
	TaskScheduled       TaskEventKind = "scheduled"
	TaskStarted         TaskEventKind = "started"
	TaskSucceeded       TaskEventKind = "succeeded"
	TaskFailed          TaskEventKind = "failed"
	TaskCanceled        TaskEventKind = "canceled"
	TaskNoop            TaskEventKind = "noop"
	TaskFailDirective   TaskEventKind = "fail_directive"
	TaskPauseRequested  TaskEventKind = "pause_requested"
	TaskPaused          TaskEventKind = "paused"
	TaskResumeRequested TaskEventKind = "resume_requested"
	TaskCancelRequested TaskEventKind = "cancel_requested"
)

// TaskEvent is the event fed into TaskStateMachine.Process. Result carries an
// arbitrary executor-supplied payload that is later surfaced to expression
// evaluation as `__current_task.result`; it has no bearing on the state
// transition itself.
type TaskEvent struct {
	Kind   TaskEventKind
	Result any
}

// taskTransitions maps (current state, event kind) to the resulting state.
// Any pair absent from this table is an illegal transition.
var taskTransitions = map[State]map[TaskEventKind]State{
	Requested: {
		TaskScheduled:       Scheduled,
		TaskNoop:            Succeeded,
		TaskFailDirective:   Failed,
		TaskCancelRequested: Canceled,
	},
	Scheduled: {
		TaskStarted:         Running,
		TaskFailed:          Failed,
		TaskCancelRequested: Canceled,
	},
	Running: {
		TaskSucceeded:       Succeeded,
		TaskFailed:          Failed,
		TaskCancelRequested: Canceling,
		TaskPauseRequested:  Pausing,
	},
	Canceling: {
		TaskCanceled: Canceled,
	},
	Pausing: {
		TaskPaused:          Paused,
		TaskCanceled:        Canceled,
		TaskCancelRequested: Canceled,
	},
	Paused: {
		TaskResumeRequested: Pending,
		TaskCancelRequested: Canceled,
	},
	Pending: {
		TaskScheduled:       Scheduled,
		TaskCancelRequested: Canceled,
	},
}

// TaskStateMachine processes TaskEvents against a task flow entry's state.
//
// An entry is any type exposing GetState/SetState; in this module that is
// *flow.Entry, but the machine is kept decoupled from the flow package to
// avoid an import cycle (flow depends on states, not the reverse).
type TaskEntry interface {
	GetState() State
	SetState(State)
}

// TaskStateMachine is the transition table for task flow entries. It has no
// fields; it exists as a namespace for Process so call sites read
// states.TaskStateMachine{}.Process(...), mirroring the two-state-machine
// design in the conductor.
type TaskStateMachine struct{}

// Process applies event to entry, mutating its state in place. It returns
// *InvalidStateTransitionError if the event is not legal from the entry's
// current state; the entry is left unmodified in that case.
func (TaskStateMachine) Process(entry TaskEntry, event TaskEvent) error {
	current := entry.GetState()
	if current == "" {
		current = Requested
	}

	table, ok := taskTransitions[current]
	if !ok {
		return &InvalidStateTransitionError{From: current, Event: event.Kind}
	}

	next, ok := table[event.Kind]
	if !ok {
		return &InvalidStateTransitionError{From: current, Event: event.Kind}
	}

	entry.SetState(next)
	return nil
}
