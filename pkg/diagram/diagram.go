package diagram

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Sentinel errors returned by graph mutations. All errors are wrapped with
// the offending ID, so use errors.Is for checks.
var (
	// ErrEmptyID indicates a node with an empty ID was added.
	ErrEmptyID = errors.New("id must not be empty")

	// ErrDuplicateNode indicates a node with the same ID already exists.
	ErrDuplicateNode = errors.New("node already exists")

	// ErrDuplicateEdge indicates an edge with the same ID already exists.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrMissingEndpoint indicates an edge references a node that does not exist.
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")

	// ErrNodeNotFound indicates the requested node does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates the requested edge does not exist.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidGeometry indicates a coordinate or dimension is NaN or infinite.
	ErrInvalidGeometry = errors.New("geometry must be finite")
)

// Attrs holds arbitrary key-value data attached to nodes, edges, and the
// graph itself. Attribute values should stick to JSON-friendly types so they
// survive serialization round trips.
type Attrs map[string]any

// String returns the attribute under key if it exists and is a string.
func (a Attrs) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (a Attrs) clone() Attrs {
	if a == nil {
		return Attrs{}
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Point is a coordinate in diagram space. The origin is the top-left corner
// and y grows downward.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a width and height pair in diagram units.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Bounds is an axis-aligned rectangle identified by its top-left corner.
type Bounds struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Node is a rectangular vertex in the diagram. X and Y locate the top-left
// corner of the node box.
type Node struct {
	ID     string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Label  string
	Attrs  Attrs
}

// Position returns the top-left corner of the node.
func (n *Node) Position() Point { return Point{X: n.X, Y: n.Y} }

// SetPosition moves the top-left corner of the node.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
}

// Size returns the node dimensions.
func (n *Node) Size() Size { return Size{Width: n.Width, Height: n.Height} }

// Resize sets the node dimensions.
func (n *Node) Resize(w, h float64) {
	n.Width = w
	n.Height = h
}

// Center returns the midpoint of the node box.
func (n *Node) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Bounds returns the node box.
func (n *Node) Bounds() Bounds {
	return Bounds{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// DisplayLabel resolves the text a renderer should show for the node. It
// prefers the Label field, then the "text" attribute, then the "label"
// attribute, and finally returns an empty string.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	if s, ok := n.Attrs.String("text"); ok && s != "" {
		return s
	}
	if s, ok := n.Attrs.String("label"); ok && s != "" {
		return s
	}
	return ""
}

// Edge connects a source node to a target node. Vertices are intermediate
// route points between the endpoints, ordered from source to target. An edge
// with no vertices is drawn as a direct connection.
type Edge struct {
	ID       string
	Source   string
	Target   string
	Vertices []Point
	Attrs    Attrs
}

// SetVertices replaces the edge route with a copy of pts.
func (e *Edge) SetVertices(pts []Point) {
	if len(pts) == 0 {
		e.Vertices = nil
		return
	}
	e.Vertices = slices.Clone(pts)
}

// ClearVertices removes the edge route.
func (e *Edge) ClearVertices() { e.Vertices = nil }

// Graph is a mutable node-link diagram. The zero value is not usable; create
// instances with New. Graph is not safe for concurrent use.
type Graph struct {
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	attrs     Attrs
	edgeSeq   int
}

// New creates an empty graph. The attrs map may be nil.
func New(attrs Attrs) *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
		attrs: attrs.clone(),
	}
}

// Attrs returns the graph-level attribute map. The map is shared, not copied.
func (g *Graph) Attrs() Attrs { return g.attrs }

// AddNode inserts a node into the graph. The node ID must be non-empty and
// unique. The node value is copied; mutate it afterwards through the pointer
// returned by Node.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return fmt.Errorf("add node: %w", ErrEmptyID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("add node %q: %w", n.ID, ErrDuplicateNode)
	}
	if n.Attrs == nil {
		n.Attrs = Attrs{}
	}
	stored := n
	g.nodes[n.ID] = &stored
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// AddEdge inserts an edge into the graph. Both endpoints must already exist.
// An empty edge ID is replaced with a generated one of the form "e<n>".
func (g *Graph) AddEdge(e Edge) error {
	if e.ID == "" {
		e.ID = g.nextEdgeID()
	}
	if _, exists := g.edges[e.ID]; exists {
		return fmt.Errorf("add edge %q: %w", e.ID, ErrDuplicateEdge)
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("add edge %q: source %q: %w", e.ID, e.Source, ErrMissingEndpoint)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return fmt.Errorf("add edge %q: target %q: %w", e.ID, e.Target, ErrMissingEndpoint)
	}
	if e.Attrs == nil {
		e.Attrs = Attrs{}
	}
	e.Vertices = slices.Clone(e.Vertices)
	stored := e
	g.edges[e.ID] = &stored
	g.edgeOrder = append(g.edgeOrder, e.ID)
	return nil
}

func (g *Graph) nextEdgeID() string {
	for {
		g.edgeSeq++
		id := fmt.Sprintf("e%d", g.edgeSeq)
		if _, exists := g.edges[id]; !exists {
			return id
		}
	}
}

// RemoveNode deletes a node and every edge incident to it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("remove node %q: %w", id, ErrNodeNotFound)
	}
	for _, eid := range slices.Clone(g.edgeOrder) {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			delete(g.edges, eid)
			g.edgeOrder = deleteID(g.edgeOrder, eid)
		}
	}
	delete(g.nodes, id)
	g.nodeOrder = deleteID(g.nodeOrder, id)
	return nil
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(id string) error {
	if _, ok := g.edges[id]; !ok {
		return fmt.Errorf("remove edge %q: %w", id, ErrEdgeNotFound)
	}
	delete(g.edges, id)
	g.edgeOrder = deleteID(g.edgeOrder, id)
	return nil
}

func deleteID(order []string, id string) []string {
	if i := slices.Index(order, id); i >= 0 {
		return slices.Delete(order, i, i+1)
	}
	return order
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns all nodes in insertion order. The slice is fresh but the
// pointers alias graph state.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns all edges in insertion order. The slice is fresh but the
// pointers alias graph state.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, g.edges[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutDegree returns the number of edges leaving the node.
func (g *Graph) OutDegree(id string) int {
	count := 0
	for _, e := range g.edges {
		if e.Source == id {
			count++
		}
	}
	return count
}

// InDegree returns the number of edges entering the node.
func (g *Graph) InDegree(id string) int {
	count := 0
	for _, e := range g.edges {
		if e.Target == id {
			count++
		}
	}
	return count
}

// Degree returns the total number of edges incident to the node. Self loops
// count twice.
func (g *Graph) Degree(id string) int {
	return g.OutDegree(id) + g.InDegree(id)
}

// Validate checks structural integrity: non-empty IDs, resolvable edge
// endpoints, and finite geometry on every node and vertex.
func (g *Graph) Validate() error {
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		if n.ID == "" {
			return fmt.Errorf("validate: %w", ErrEmptyID)
		}
		if !finite(n.X) || !finite(n.Y) || !finite(n.Width) || !finite(n.Height) {
			return fmt.Errorf("validate node %q: %w", n.ID, ErrInvalidGeometry)
		}
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		if _, ok := g.nodes[e.Source]; !ok {
			return fmt.Errorf("validate edge %q: source %q: %w", e.ID, e.Source, ErrMissingEndpoint)
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return fmt.Errorf("validate edge %q: target %q: %w", e.ID, e.Target, ErrMissingEndpoint)
		}
		for _, p := range e.Vertices {
			if !finite(p.X) || !finite(p.Y) {
				return fmt.Errorf("validate edge %q: %w", e.ID, ErrInvalidGeometry)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BoundingBox returns the smallest rectangle containing every node box and
// edge vertex. An empty graph yields the zero Bounds.
func (g *Graph) BoundingBox() Bounds {
	if len(g.nodes) == 0 && len(g.edges) == 0 {
		return Bounds{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x, y float64) {
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		grow(n.X, n.Y)
		grow(n.X+n.Width, n.Y+n.Height)
	}
	for _, id := range g.edgeOrder {
		for _, p := range g.edges[id].Vertices {
			grow(p.X, p.Y)
		}
	}
	if math.IsInf(minX, 1) {
		return Bounds{}
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Translate shifts every node and edge vertex by (dx, dy).
func (g *Graph) Translate(dx, dy float64) {
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		n.X += dx
		n.Y += dy
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		for i := range e.Vertices {
			e.Vertices[i].X += dx
			e.Vertices[i].Y += dy
		}
	}
}

// FitContent translates the graph so its bounding box starts at
// (padding, padding). Empty graphs are left untouched.
func (g *Graph) FitContent(padding float64) {
	if len(g.nodes) == 0 && len(g.edges) == 0 {
		return
	}
	bb := g.BoundingBox()
	g.Translate(padding-bb.X, padding-bb.Y)
}

// Clone returns a deep copy of the graph. Attribute values are copied by
// reference, so nested maps remain shared.
func (g *Graph) Clone() *Graph {
	out := New(g.attrs)
	for _, id := range g.nodeOrder {
		n := g.nodes[id]
		cp := *n
		cp.Attrs = n.Attrs.clone()
		out.nodes[cp.ID] = &cp
		out.nodeOrder = append(out.nodeOrder, cp.ID)
	}
	for _, id := range g.edgeOrder {
		e := g.edges[id]
		cp := *e
		cp.Attrs = e.Attrs.clone()
		cp.Vertices = slices.Clone(e.Vertices)
		out.edges[cp.ID] = &cp
		out.edgeOrder = append(out.edgeOrder, cp.ID)
	}
	out.edgeSeq = g.edgeSeq
	return out
}
