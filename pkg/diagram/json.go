package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// =============================================================================
// Wire Types
// =============================================================================

// NodeData is the serialized form of a node. The bson tags let documents be
// stored in MongoDB without a parallel type.
type NodeData struct {
	ID     string         `json:"id" bson:"id"`
	X      float64        `json:"x" bson:"x"`
	Y      float64        `json:"y" bson:"y"`
	Width  float64        `json:"width" bson:"width"`
	Height float64        `json:"height" bson:"height"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	Attrs  map[string]any `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// EdgeData is the serialized form of an edge.
type EdgeData struct {
	ID       string         `json:"id" bson:"id"`
	Source   string         `json:"source" bson:"source"`
	Target   string         `json:"target" bson:"target"`
	Vertices []Point        `json:"vertices,omitempty" bson:"vertices,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// GraphData is the serialized form of a graph in node-link layout. This is
// the shape accepted and produced by the HTTP API and the CLI.
type GraphData struct {
	Nodes []NodeData     `json:"nodes" bson:"nodes"`
	Edges []EdgeData     `json:"edges" bson:"edges"`
	Attrs map[string]any `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// =============================================================================
// Conversion
// =============================================================================

// Export converts a graph to its wire form. Nodes and edges are sorted by ID
// for deterministic output, which keeps content hashes stable.
func Export(g *Graph) GraphData {
	out := GraphData{
		Nodes: make([]NodeData, 0, g.NodeCount()),
		Edges: make([]EdgeData, 0, g.EdgeCount()),
	}
	if len(g.attrs) > 0 {
		out.Attrs = map[string]any(g.attrs.clone())
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, NodeData{
			ID:     n.ID,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Label:  n.Label,
			Attrs:  exportAttrs(n.Attrs),
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeData{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Vertices: slices.Clone(e.Vertices),
			Attrs:    exportAttrs(e.Attrs),
		})
	}
	slices.SortFunc(out.Nodes, func(a, b NodeData) int { return strings.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Edges, func(a, b EdgeData) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func exportAttrs(a Attrs) map[string]any {
	if len(a) == 0 {
		return nil
	}
	return map[string]any(a.clone())
}

// Import builds a graph from its wire form, validating IDs and endpoints.
func Import(data GraphData) (*Graph, error) {
	g := New(Attrs(data.Attrs))
	for _, n := range data.Nodes {
		err := g.AddNode(Node{
			ID:     n.ID,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Label:  n.Label,
			Attrs:  Attrs(n.Attrs),
		})
		if err != nil {
			return nil, err
		}
	}
	for _, e := range data.Edges {
		err := g.AddEdge(Edge{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Vertices: e.Vertices,
			Attrs:    Attrs(e.Attrs),
		})
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// =============================================================================
// Marshaling and File IO
// =============================================================================

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph decodes JSON bytes into a graph.
func UnmarshalGraph(data []byte) (*Graph, error) {
	return readGraphFrom(bytes.NewReader(data))
}

// WriteGraphFile writes a graph to a JSON file with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

func writeGraphTo(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var data GraphData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Import(data)
}
