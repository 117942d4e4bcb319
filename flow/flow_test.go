package flow

import (
	"encoding/json"
	"testing"

	"github.com/nmaludy/orquesta-go/states"
)

func TestTaskFlow_AppendEntryAdvancesLatest(t *testing.T) {
	f := New()
	e1 := f.AppendEntry("task1", 0)
	e1.State = states.Succeeded

	e2 := f.AppendEntry("task1", 1) // cycle re-entry
	e2.State = states.Running

	got, ok := f.GetEntry("task1")
	if !ok || got != e2 {
		t.Fatalf("GetEntry should return the latest activation")
	}
	if len(f.Sequence) != 2 {
		t.Fatalf("Sequence length = %d, want 2", len(f.Sequence))
	}
}

func TestTaskFlow_StagedReadyFiltering(t *testing.T) {
	f := New()
	f.Staged["a"] = &Staged{Ctxs: []int{0}, Ready: true}
	f.Staged["b"] = &Staged{Ctxs: []int{0}, Ready: false}

	staged := f.GetStagedTasks()
	if len(staged) != 1 || staged[0] != "a" {
		t.Fatalf("GetStagedTasks() = %v, want [a]", staged)
	}
	if !f.HasStagedTasks() {
		t.Fatal("HasStagedTasks() should be true")
	}
}

func TestTaskFlow_StateQueries(t *testing.T) {
	f := New()
	f.AppendEntry("a", 0).State = states.Running
	f.AppendEntry("b", 0).State = states.Paused

	if !f.HasActiveTasks() {
		t.Error("expected HasActiveTasks")
	}
	if !f.HasPausedTasks() {
		t.Error("expected HasPausedTasks")
	}
	if f.HasCanceledTasks() {
		t.Error("did not expect HasCanceledTasks")
	}
}

func TestEntry_JSONRoundTripFlattensTransitions(t *testing.T) {
	e := &Entry{ID: "task1", Ctx: 2, State: states.Succeeded}
	e.SetTransition("task2__0", true)
	e.SetTransition("task3__0", false)

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal to map: %v", err)
	}
	if raw["task2__0"] != true {
		t.Fatalf("expected flattened transition key, got %v", raw)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal to Entry: %v", err)
	}
	if decoded.ID != "task1" || decoded.Ctx != 2 || decoded.State != states.Succeeded {
		t.Fatalf("decoded fixed fields mismatch: %+v", decoded)
	}
	if !decoded.GetTransition("task2__0") || decoded.GetTransition("task3__0") {
		t.Fatalf("decoded transitions mismatch: %+v", decoded.Transitions)
	}
}

func TestTaskFlow_CloneIsIndependent(t *testing.T) {
	f := New()
	f.AppendContext(&ContextEntry{Value: map[string]any{"x": 1}})
	e := f.AppendEntry("a", 0)
	e.State = states.Running
	f.Staged["b"] = &Staged{Ctxs: []int{0}, Ready: true}

	clone := f.Clone()
	clone.Contexts[0].Value["x"] = 2
	clone.Staged["b"].Ready = false

	if f.Contexts[0].Value["x"] != 1 {
		t.Fatal("mutating clone's context leaked into original")
	}
	if f.Staged["b"].Ready != true {
		t.Fatal("mutating clone's staged entry leaked into original")
	}
}

func TestMergeDicts_ParentWinsOnOverwrite(t *testing.T) {
	dst := map[string]any{"a": 1, "nested": map[string]any{"x": 1, "y": 2}}
	src := map[string]any{"a": 2, "b": 3, "nested": map[string]any{"y": 20, "z": 30}}

	merged := MergeDicts(dst, src, true)

	if merged["a"] != 2 || merged["b"] != 3 {
		t.Fatalf("top-level merge wrong: %+v", merged)
	}
	nested := merged["nested"].(map[string]any)
	if nested["x"] != 1 || nested["y"] != 20 || nested["z"] != 30 {
		t.Fatalf("nested merge wrong: %+v", nested)
	}
}

func TestMergeDicts_NoOverwriteKeepsDst(t *testing.T) {
	dst := map[string]any{"a": 1}
	src := map[string]any{"a": 2, "b": 3}

	merged := MergeDicts(dst, src, false)
	if merged["a"] != 1 || merged["b"] != 3 {
		t.Fatalf("merge wrong: %+v", merged)
	}
}
