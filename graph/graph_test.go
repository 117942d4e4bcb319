package graph

import "testing"

func buildDiamond(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"task1", "task2", "task3", "task4"} {
		if err := g.AddTask(id, id); err != nil {
			t.Fatalf("AddTask(%s): %v", id, err)
		}
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("AddTransition: %v", err)
		}
	}
	must(g.AddTransition("task1", "task2", 0, nil, nil))
	must(g.AddTransition("task1", "task3", 0, nil, nil))
	must(g.AddTransition("task2", "task4", 0, nil, nil))
	must(g.AddTransition("task3", "task4", 0, nil, nil))
	g.SetBarrier("task4", Barrier{All: true})
	return g
}

func TestGraph_Roots(t *testing.T) {
	g := buildDiamond(t)
	roots := g.Roots()
	if len(roots) != 1 || roots[0].ID != "task1" {
		t.Fatalf("Roots() = %+v, want [task1]", roots)
	}
}

func TestGraph_TransitionsAndBarrier(t *testing.T) {
	g := buildDiamond(t)

	next := g.GetNextTransitions("task1")
	if len(next) != 2 {
		t.Fatalf("len(next) = %d, want 2", len(next))
	}

	prev := g.GetPrevTransitions("task4")
	if len(prev) != 2 {
		t.Fatalf("len(prev) = %d, want 2", len(prev))
	}

	b, ok := g.GetBarrier("task4")
	if !ok || !b.All {
		t.Fatalf("GetBarrier(task4) = %+v, %v; want {All:true}, true", b, ok)
	}

	if g.HasBarrier("task2") {
		t.Fatal("task2 should have no declared barrier")
	}
}

func TestGraph_DuplicateTaskRejected(t *testing.T) {
	g := New()
	if err := g.AddTask("a", "a"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTask("a", "a"); err == nil {
		t.Fatal("expected error adding duplicate task id")
	}
}

func TestGraph_TransitionRequiresKnownTasks(t *testing.T) {
	g := New()
	if err := g.AddTask("a", "a"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTransition("a", "ghost", 0, nil, nil); err == nil {
		t.Fatal("expected error for unknown destination")
	}
}

func TestGraph_ParallelEdgesDisambiguatedByKey(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b"} {
		if err := g.AddTask(id, id); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddTransition("a", "b", 0, []string{"cond0"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTransition("a", "b", 1, []string{"cond1"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTransition("a", "b", 0, nil, nil); err == nil {
		t.Fatal("expected duplicate (a,b,0) to be rejected")
	}

	next := g.GetNextTransitions("a")
	if len(next) != 2 {
		t.Fatalf("len(next) = %d, want 2", len(next))
	}
	if next[0].ID() != "b__0" || next[1].ID() != "b__1" {
		t.Fatalf("transition ids = %q, %q", next[0].ID(), next[1].ID())
	}
}

func TestGraph_InCycle(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := g.AddTask(id, id); err != nil {
			t.Fatal(err)
		}
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddTransition("a", "b", 0, nil, nil))
	must(g.AddTransition("b", "c", 0, nil, nil))
	must(g.AddTransition("c", "b", 0, nil, nil)) // b<->c cycle
	must(g.AddTransition("c", "d", 0, nil, nil))

	if g.InCycle("a") {
		t.Error("a should not be in a cycle")
	}
	if !g.InCycle("b") || !g.InCycle("c") {
		t.Error("b and c should be in a cycle")
	}
	if g.InCycle("d") {
		t.Error("d should not be in a cycle")
	}
}

func TestGraph_InCycle_SelfLoop(t *testing.T) {
	g := New()
	if err := g.AddTask("a", "a"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddTransition("a", "a", 0, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !g.InCycle("a") {
		t.Error("self-loop should count as a cycle")
	}
}

func TestGraph_SerializeDeserializeRoundTrip(t *testing.T) {
	g := buildDiamond(t)
	dump := g.Serialize()

	g2, err := Deserialize(dump)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	dump2 := g2.Serialize()
	if len(dump.Nodes) != len(dump2.Nodes) {
		t.Fatalf("node count mismatch: %d vs %d", len(dump.Nodes), len(dump2.Nodes))
	}
	for i := range dump.Nodes {
		a, b := dump.Nodes[i], dump2.Nodes[i]
		if a.ID != b.ID || a.Name != b.Name {
			t.Fatalf("node %d mismatch: %+v vs %+v", i, a, b)
		}
		if (a.Barrier == nil) != (b.Barrier == nil) {
			t.Fatalf("node %d barrier presence mismatch: %+v vs %+v", i, a.Barrier, b.Barrier)
		}
		if a.Barrier != nil && *a.Barrier != *b.Barrier {
			t.Fatalf("node %d barrier mismatch: %+v vs %+v", i, *a.Barrier, *b.Barrier)
		}
	}
	if !g2.HasBarrier("task4") {
		t.Fatal("round-tripped graph lost task4's barrier")
	}
	roots := g2.Roots()
	if len(roots) != 1 || roots[0].ID != "task1" {
		t.Fatalf("round-tripped Roots() = %+v", roots)
	}
}
