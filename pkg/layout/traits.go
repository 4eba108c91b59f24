package layout

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// Traits are the structural measurements density policies select presets
// from.
type Traits struct {
	// Nodes and Edges are plain counts.
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`

	// Density is the edge-to-node ratio, zero for an empty graph.
	Density float64 `json:"density"`

	// MaxDegree is the highest number of edges incident to a single node.
	// Self loops count twice.
	MaxDegree int `json:"max_degree"`

	// Components is the number of weakly connected components.
	Components int `json:"components"`

	// Cyclic reports whether the graph contains a directed cycle.
	Cyclic bool `json:"cyclic"`
}

// Measure computes the structural traits of a graph. Connectivity and cycle
// detection run on a gonum mirror of the graph; self loops and parallel
// edges are collapsed there but still counted in the degree figures.
func Measure(g *diagram.Graph) Traits {
	t := Traits{Nodes: g.NodeCount(), Edges: g.EdgeCount()}
	if t.Nodes == 0 {
		return t
	}
	t.Density = float64(t.Edges) / float64(t.Nodes)

	nodes := g.Nodes()
	for _, n := range nodes {
		if d := g.Degree(n.ID); d > t.MaxDegree {
			t.MaxDegree = d
		}
	}

	dg := simple.NewDirectedGraph()
	ug := simple.NewUndirectedGraph()
	ids := make(map[string]graph.Node, t.Nodes)
	for _, n := range nodes {
		gn := dg.NewNode()
		dg.AddNode(gn)
		ug.AddNode(simple.Node(gn.ID()))
		ids[n.ID] = gn
	}

	selfLoop := false
	for _, e := range g.Edges() {
		from, to := ids[e.Source], ids[e.Target]
		if from.ID() == to.ID() {
			// simple graphs reject self loops; a self loop is trivially a cycle.
			selfLoop = true
			continue
		}
		dg.SetEdge(dg.NewEdge(from, to))
		ug.SetEdge(ug.NewEdge(ug.Node(from.ID()), ug.Node(to.ID())))
	}

	t.Components = len(topo.ConnectedComponents(ug))
	if selfLoop {
		t.Cyclic = true
	} else if _, err := topo.Sort(dg); err != nil {
		t.Cyclic = true
	}
	return t
}
