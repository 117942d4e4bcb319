package graph

// Dump is the stable, JSON-ish serialized form of a Graph (spec §4.1):
// a directed multigraph recorded as a node list plus an adjacency list of
// outbound edges indexed parallel to Nodes.
type Dump struct {
	Directed   bool         `json:"directed"`
	Multigraph bool         `json:"multigraph"`
	Nodes      []NodeDump   `json:"nodes"`
	Adjacency  [][]EdgeDump `json:"adjacency"`
}

// NodeDump is one entry in Dump.Nodes.
type NodeDump struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Barrier *BarrierDump `json:"barrier,omitempty"`
}

// BarrierDump is the serialized form of a Barrier.
type BarrierDump struct {
	All   bool `json:"all,omitempty"`
	Count int  `json:"count,omitempty"`
}

// EdgeDump is one outbound transition in Dump.Adjacency.
type EdgeDump struct {
	To       string         `json:"to"`
	Key      int            `json:"key"`
	Criteria []string       `json:"criteria,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Serialize produces the round-trippable Dump for g.
func (g *Graph) Serialize() Dump {
	dump := Dump{
		Directed:   true,
		Multigraph: true,
		Nodes:      make([]NodeDump, 0, len(g.order)),
		Adjacency:  make([][]EdgeDump, 0, len(g.order)),
	}

	for _, id := range g.order {
		n := g.nodes[id]
		nd := NodeDump{ID: n.ID, Name: n.Name}
		if b, ok := g.barriers[id]; ok {
			nd.Barrier = &BarrierDump{All: b.All, Count: b.Count}
		}
		dump.Nodes = append(dump.Nodes, nd)

		edges := make([]EdgeDump, 0, len(g.out[id]))
		for _, t := range g.out[id] {
			edges = append(edges, EdgeDump{To: t.Dst, Key: t.Key, Criteria: t.Criteria, Attrs: t.Attrs})
		}
		dump.Adjacency = append(dump.Adjacency, edges)
	}

	return dump
}

// Deserialize rebuilds a Graph from its Dump, as produced by Serialize.
func Deserialize(dump Dump) (*Graph, error) {
	g := New()

	for _, n := range dump.Nodes {
		if err := g.AddTask(n.ID, n.Name); err != nil {
			return nil, err
		}
		if n.Barrier != nil {
			g.SetBarrier(n.ID, Barrier{All: n.Barrier.All, Count: n.Barrier.Count})
		}
	}

	for i, edges := range dump.Adjacency {
		if i >= len(dump.Nodes) {
			break
		}
		src := dump.Nodes[i].ID
		for _, e := range edges {
			if err := g.AddTransition(src, e.To, e.Key, e.Criteria, e.Attrs); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
