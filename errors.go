package orquesta

import (
	"fmt"

	"github.com/nmaludy/orquesta-go/states"
)

// ErrorCode classifies the error kinds a Conductor can raise (spec.md §7).
type ErrorCode string

const (
	ErrInvalidArgument                ErrorCode = "invalid_argument"
	ErrInvalidState                   ErrorCode = "invalid_state"
	ErrInvalidStateTransition         ErrorCode = "invalid_state_transition"
	ErrInvalidWorkflowStateTransition ErrorCode = "invalid_workflow_state_transition"
	ErrInvalidTask                    ErrorCode = "invalid_task"
	ErrInvalidTaskFlowEntry           ErrorCode = "invalid_task_flow_entry"
	ErrWorkflowContext                ErrorCode = "workflow_context_error"
)

// ConductorError is the structured error type raised for argument/shape
// violations and illegal state requests (spec §7's "propagated to the
// caller" bucket). Errors arising from evaluator/render calls are not raised
// this way — they are captured into Conductor.Errors() instead, see update.go.
type ConductorError struct {
	Code             ErrorCode
	Message          string
	TaskID           string
	TaskTransitionID string
	Cause            error
}

func (e *ConductorError) Error() string {
	msg := fmt.Sprintf("orquesta: %s: %s", e.Code, e.Message)
	if e.TaskID != "" {
		msg += fmt.Sprintf(" (task=%s)", e.TaskID)
	}
	if e.TaskTransitionID != "" {
		msg += fmt.Sprintf(" (transition=%s)", e.TaskTransitionID)
	}
	return msg
}

func (e *ConductorError) Unwrap() error {
	return e.Cause
}

func newInvalidArgument(format string, args ...any) *ConductorError {
	return &ConductorError{Code: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func newInvalidTask(taskID string) *ConductorError {
	return &ConductorError{Code: ErrInvalidTask, Message: "task not found in graph", TaskID: taskID}
}

func newInvalidTaskFlowEntry(taskID string) *ConductorError {
	return &ConductorError{Code: ErrInvalidTaskFlowEntry, Message: "task is neither staged nor recorded", TaskID: taskID}
}

func newInvalidWorkflowStateTransition(from, to states.State) *ConductorError {
	return &ConductorError{
		Code:    ErrInvalidWorkflowStateTransition,
		Message: fmt.Sprintf("cannot transition workflow from %q to %q", from, to),
	}
}

func newWorkflowContextError(format string, args ...any) *ConductorError {
	return &ConductorError{Code: ErrWorkflowContext, Message: fmt.Sprintf(format, args...)}
}
