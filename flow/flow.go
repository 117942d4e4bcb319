// Package flow implements the execution ledger described in spec.md §3/§4.3:
// an append-only, indexed context store plus the ordered sequence of task
// activations ("flow entries") and the staged-task table. It is a pure
// data-and-query object — all mutation is performed by the conductor package,
// which alone knows the scheduling algorithm.
package flow

import (
	"sort"

	"github.com/nmaludy/orquesta-go/states"
)

// ContextEntry is one append-only entry in the context store (spec §3).
// Terminal entries use Src (singular) instead of Srcs; this asymmetry is
// carried deliberately for wire compatibility, see spec.md §9's open
// question and DESIGN.md.
type ContextEntry struct {
	Srcs  []int          `json:"srcs,omitempty"`
	Src   []int          `json:"src,omitempty"`
	Value map[string]any `json:"value"`
	Term  bool           `json:"term,omitempty"`
}

// Staged describes a task waiting to run: the context indices feeding it and
// whether its inbound join barrier is currently satisfied.
type Staged struct {
	Ctxs  []int `json:"ctxs"`
	Ready bool  `json:"ready"`
}

// TaskFlow is the execution ledger: the ordered sequence of task
// activations, a name->index map to the latest activation, the staged-task
// table, and the context list.
type TaskFlow struct {
	Tasks    map[string]int  `json:"tasks"`
	Sequence []*Entry        `json:"sequence"`
	Contexts []*ContextEntry `json:"contexts"`
	Staged   map[string]*Staged `json:"staged"`
}

// New returns an empty TaskFlow.
func New() *TaskFlow {
	return &TaskFlow{
		Tasks:  make(map[string]int),
		Staged: make(map[string]*Staged),
	}
}

// AppendEntry appends a new flow entry for taskID activated from ctxIdx,
// making it the latest activation of taskID, and returns the entry.
func (f *TaskFlow) AppendEntry(taskID string, ctxIdx int) *Entry {
	entry := &Entry{
		ID:          taskID,
		Ctx:         ctxIdx,
		Transitions: make(map[string]bool),
	}
	f.Sequence = append(f.Sequence, entry)
	f.Tasks[taskID] = len(f.Sequence) - 1
	return entry
}

// GetEntry returns the latest flow entry for taskID, if any.
func (f *TaskFlow) GetEntry(taskID string) (*Entry, bool) {
	idx, ok := f.Tasks[taskID]
	if !ok {
		return nil, false
	}
	return f.Sequence[idx], true
}

// GetEntryIndex returns the sequence index of the latest activation of
// taskID.
func (f *TaskFlow) GetEntryIndex(taskID string) (int, bool) {
	idx, ok := f.Tasks[taskID]
	return idx, ok
}

// AppendContext appends a new context entry and returns its index.
func (f *TaskFlow) AppendContext(entry *ContextEntry) int {
	f.Contexts = append(f.Contexts, entry)
	return len(f.Contexts) - 1
}

// GetTasksByState returns the flow entries whose state is a member of the
// given set, in sequence order.
func (f *TaskFlow) GetTasksByState(set states.Set) []*Entry {
	var out []*Entry
	for _, e := range f.Sequence {
		if set.Has(e.State) {
			out = append(out, e)
		}
	}
	return out
}

// HasTasksInState reports whether any flow entry currently has the given
// state.
func (f *TaskFlow) HasTasksInState(s states.State) bool {
	for _, e := range f.Sequence {
		if e.State == s {
			return true
		}
	}
	return false
}

// HasActiveTasks reports whether any flow entry is in one of the
// "currently doing something" task states.
func (f *TaskFlow) HasActiveTasks() bool {
	return len(f.GetTasksByState(states.ActiveTaskStates)) > 0
}

// HasPausingTasks reports whether any flow entry is Pausing.
func (f *TaskFlow) HasPausingTasks() bool {
	return f.HasTasksInState(states.Pausing)
}

// HasPausedTasks reports whether any flow entry is Paused or Pending.
func (f *TaskFlow) HasPausedTasks() bool {
	return f.HasTasksInState(states.Paused) || f.HasTasksInState(states.Pending)
}

// HasCancelingTasks reports whether any flow entry is Canceling.
func (f *TaskFlow) HasCancelingTasks() bool {
	return f.HasTasksInState(states.Canceling)
}

// HasCanceledTasks reports whether any flow entry is Canceled.
func (f *TaskFlow) HasCanceledTasks() bool {
	return f.HasTasksInState(states.Canceled)
}

// GetStagedTasks returns the ids of staged tasks whose join barrier is
// satisfied (Ready == true), sorted for deterministic iteration.
func (f *TaskFlow) GetStagedTasks() []string {
	var ids []string
	for id, s := range f.Staged {
		if s.Ready {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// HasStagedTasks reports whether any task is ready to run.
func (f *TaskFlow) HasStagedTasks() bool {
	return len(f.GetStagedTasks()) > 0
}
