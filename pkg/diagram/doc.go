// Package diagram provides the node-link diagram model that flows through
// the neatgraph layout pipeline.
//
// # Overview
//
// A [Graph] holds nodes and edges keyed by caller-supplied string IDs. Nodes
// carry a position, a size, an optional label, and an open-ended attribute
// map. Edges connect exactly one source node to one target node and carry an
// ordered list of route vertices that layout engines fill in.
//
// The model is deliberately mutable: layout results are applied back onto the
// same graph instance the caller built, mirroring how an interactive canvas
// updates cells in place.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [Graph.AddNode], and edges with
// [Graph.AddEdge]. Node IDs must be unique, and edges may only connect
// existing nodes:
//
//	g := diagram.New(nil)
//	g.AddNode(diagram.Node{ID: "a", Width: 80, Height: 40})
//	g.AddNode(diagram.Node{ID: "b", Width: 80, Height: 40})
//	g.AddEdge(diagram.Edge{Source: "a", Target: "b"})
//
// Iteration order from [Graph.Nodes] and [Graph.Edges] is the insertion
// order, which keeps downstream layout input deterministic.
//
// # Serialization
//
// [GraphData] is the wire form used by the HTTP API, the CLI, and the
// document store. [Export] and [Import] convert between the two
// representations, and [MarshalGraph], [UnmarshalGraph],
// [WriteGraphFile], and [ReadGraphFile] handle JSON encoding and file IO.
//
// # Concurrency
//
// Graph is not safe for concurrent use. Callers that share a graph across
// goroutines must provide their own synchronization.
package diagram
