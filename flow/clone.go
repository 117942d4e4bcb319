package flow

import "encoding/json"

// Clone returns a deep copy of f. The conductor uses it when serializing, so
// a snapshot shares no state with the live ledger; Conductor.Flow() itself
// returns the live ledger, not a clone.
func (f *TaskFlow) Clone() *TaskFlow {
	data, err := json.Marshal(f)
	if err != nil {
		panic("flow: unexpected marshal failure cloning TaskFlow: " + err.Error())
	}

	clone := New()
	if err := json.Unmarshal(data, clone); err != nil {
		panic("flow: unexpected unmarshal failure cloning TaskFlow: " + err.Error())
	}
	return clone
}

// CloneContext returns a deep copy of a single context entry.
func CloneContext(entry *ContextEntry) *ContextEntry {
	if entry == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		panic("flow: unexpected marshal failure cloning ContextEntry: " + err.Error())
	}
	clone := &ContextEntry{}
	if err := json.Unmarshal(data, clone); err != nil {
		panic("flow: unexpected unmarshal failure cloning ContextEntry: " + err.Error())
	}
	return clone
}

// CloneValue returns a deep copy of an arbitrary JSON-shaped value (a
// context map, an already-rendered task spec, ...).
func CloneValue(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic("flow: unexpected marshal failure cloning value: " + err.Error())
	}
	clone := make(map[string]any)
	if err := json.Unmarshal(data, &clone); err != nil {
		panic("flow: unexpected unmarshal failure cloning value: " + err.Error())
	}
	return clone
}
