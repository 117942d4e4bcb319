package states

import "fmt"

// InvalidStateTransitionError is returned by TaskStateMachine.Process when an
// event is not legal from the entry's current state.
type InvalidStateTransitionError struct {
	From  State
	Event TaskEventKind
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: event %q is not valid from state %q", e.Event, e.From)
}

// InvalidStateError is returned when a caller supplies a State value that is
// not one of the known constants.
type InvalidStateError struct {
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %q", e.State)
}
