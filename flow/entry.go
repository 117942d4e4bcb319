package flow

import (
	"encoding/json"

	"github.com/nmaludy/orquesta-go/states"
)

// Entry is one activation of a task id in the flow ledger (spec §3's "task
// flow entry"): {id, ctx, state, <transition_id>: bool, ...}. The boolean
// fields keyed by a transition id ("<dst>__<key>") are stored in Transitions
// and flattened back to the top level on marshal, matching the flat dict
// shape the original conductor serializes.
type Entry struct {
	ID          string
	Ctx         int
	State       states.State
	Transitions map[string]bool
}

// GetState implements states.TaskEntry.
func (e *Entry) GetState() states.State { return e.State }

// SetState implements states.TaskEntry.
func (e *Entry) SetState(s states.State) { e.State = s }

// SetTransition records whether the named transition id fired.
func (e *Entry) SetTransition(id string, satisfied bool) {
	if e.Transitions == nil {
		e.Transitions = make(map[string]bool)
	}
	e.Transitions[id] = satisfied
}

// GetTransition reports whether transition id is recorded as satisfied.
func (e *Entry) GetTransition(id string) bool {
	return e.Transitions[id]
}

// MarshalJSON flattens Transitions alongside the fixed fields, so the wire
// form is a single flat object: {"id":..., "ctx":..., "state":...,
// "dst__0": true, ...}.
func (e *Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 3+len(e.Transitions))
	m["id"] = e.ID
	m["ctx"] = e.Ctx
	m["state"] = e.State
	for k, v := range e.Transitions {
		m[k] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON reverses MarshalJSON: known fixed fields are assigned to
// their struct field, everything else is assumed to be a boolean transition
// flag.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &e.ID); err != nil {
			return err
		}
		delete(raw, "id")
	}
	if v, ok := raw["ctx"]; ok {
		if err := json.Unmarshal(v, &e.Ctx); err != nil {
			return err
		}
		delete(raw, "ctx")
	}
	if v, ok := raw["state"]; ok {
		if err := json.Unmarshal(v, &e.State); err != nil {
			return err
		}
		delete(raw, "state")
	}

	e.Transitions = make(map[string]bool, len(raw))
	for k, v := range raw {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return err
		}
		e.Transitions[k] = b
	}

	return nil
}
