package netgraph

import "testing"

func TestConnectedComponentsSplitsDisjointGroups(t *testing.T) {
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddVertex("D")
	g.AddEdge("E", "F")

	comps := g.ConnectedComponents()
	if len(comps) != 3 {
		t.Fatalf("expected 3 components, got %d: %v", len(comps), comps)
	}
	if comps[0][0] != "A" || len(comps[0]) != 3 {
		t.Errorf("expected first component {A,B,C}, got %v", comps[0])
	}
}

func TestAddEdgeSelfLoopIsNoOp(t *testing.T) {
	g := New()
	g.AddEdge("A", "A")

	comps := g.ConnectedComponents()
	if len(comps) != 1 || len(comps[0]) != 1 {
		t.Fatalf("expected single singleton component, got %v", comps)
	}
}

func TestVerticesSorted(t *testing.T) {
	g := New()
	g.AddVertex("zeta")
	g.AddVertex("alpha")
	g.AddEdge("alpha", "mid")

	got := g.Vertices()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
