package orquesta

import (
	"encoding/json"

	"github.com/nmaludy/orquesta-go/flow"
	"github.com/nmaludy/orquesta-go/graph"
	"github.com/nmaludy/orquesta-go/states"
)

// Snapshot is the round-trippable wire form of a Conductor (spec.md §6).
// Spec carries only the originating spec's catalog name: parsing a catalog
// name back into a concrete wfspec.Spec/Composer pair is a caller concern,
// the same way constructing the original Spec from source text is (see
// wfspec.Spec's doc comment).
type Snapshot struct {
	Spec    string         `json:"spec"`
	Graph   graph.Dump     `json:"graph"`
	Flow    *flow.TaskFlow `json:"flow"`
	Context map[string]any `json:"context"`
	Input   map[string]any `json:"input"`
	Output  map[string]any `json:"output,omitempty"`
	Errors  []ErrorEntry   `json:"errors"`
	State   states.State   `json:"state"`
}

// Serialize captures the conductor's entire resumable state, composing the
// graph first if it has not been composed yet.
func (c *Conductor) Serialize() (Snapshot, error) {
	g, err := c.Graph()
	if err != nil {
		return Snapshot{}, err
	}
	fl, err := c.Flow()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Spec:    c.spec.Catalog(),
		Graph:   g.Serialize(),
		Flow:    fl.Clone(),
		Context: c.GetWorkflowParentContext(),
		Input:   c.GetWorkflowInput(),
		Output:  c.GetWorkflowOutput(),
		Errors:  c.Errors(),
		State:   c.workflowState,
	}, nil
}

// SerializeJSON is a convenience wrapper around Serialize for callers that
// want the wire bytes directly.
func (c *Conductor) SerializeJSON() ([]byte, error) {
	snap, err := c.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

// Deserialize rebuilds c's graph/flow/state from a Snapshot previously
// produced by Serialize. c must already have been constructed with New
// against the wfspec.Spec/Composer the snapshot's catalog name identifies —
// resolving a catalog name back into that pair is a caller concern, the same
// way parsing a spec from source text is (see wfspec.Spec's doc comment).
func (c *Conductor) Deserialize(snap Snapshot) error {
	g, err := graph.Deserialize(snap.Graph)
	if err != nil {
		return err
	}
	return c.Restore(g, snap.State, snap.Errors, snap.Flow, snap.Input, snap.Output, snap.Context)
}
