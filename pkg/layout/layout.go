package layout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// =============================================================================
// Engine Contract
// =============================================================================

// Engine computes a layout for a descriptor. Implementations must treat the
// descriptor as read-only and must honor context cancellation on long runs.
type Engine interface {
	Layout(ctx context.Context, desc *Descriptor) (*Result, error)
}

// WarmEngine is an Engine that can pre-initialize expensive state and reuse
// it across runs. Warm is called once before the first layout; Close releases
// whatever Warm acquired. An engine that was never warmed must still accept
// Layout calls by initializing per call.
type WarmEngine interface {
	Engine
	Warm(ctx context.Context) error
	Close() error
}

// =============================================================================
// Descriptor (graph -> engine)
// =============================================================================

// Descriptor is the engine-neutral layout input: a flat list of sized
// children connected by edges, plus string-valued layout directives.
type Descriptor struct {
	ID       string            `json:"id"`
	Options  map[string]string `json:"layoutOptions,omitempty"`
	Children []Child           `json:"children"`
	Edges    []Link            `json:"edges"`
}

// Child is a node to be placed. Width and Height are fixed inputs; engines
// position children but never resize them.
type Child struct {
	ID     string         `json:"id"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Label  string         `json:"label,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Link is a connection to be routed. Sources and Targets are lists for wire
// compatibility with hierarchical layout formats, but engines only consider
// the first entry of each.
type Link struct {
	ID      string         `json:"id"`
	Sources []string       `json:"sources"`
	Targets []string       `json:"targets"`
	Data    map[string]any `json:"data,omitempty"`
}

// =============================================================================
// Result (engine -> graph)
// =============================================================================

// Result is the engine output: fully absolute geometry in diagram
// coordinates (top-left origin, y growing downward). Results serialize
// cleanly to JSON so they can be cached.
type Result struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Nodes  []NodeResult `json:"nodes"`
	Edges  []EdgeRoute  `json:"edges"`
}

// NodeResult is the computed box for one child. X and Y locate the top-left
// corner.
type NodeResult struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// EdgeRoute is the computed route for one link, split into sections. Engines
// that route an edge as a single polyline emit one section.
type EdgeRoute struct {
	ID       string    `json:"id"`
	Sections []Section `json:"sections,omitempty"`
}

// Section is a contiguous run of an edge route from Start to End through
// zero or more bend points.
type Section struct {
	Start diagram.Point   `json:"start"`
	Bends []diagram.Point `json:"bends,omitempty"`
	End   diagram.Point   `json:"end"`
}

// MarshalResult converts a layout result to compact JSON bytes.
func MarshalResult(r *Result) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal layout result: %w", err)
	}
	return data, nil
}

// UnmarshalResult decodes JSON bytes into a layout result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal layout result: %w", err)
	}
	return &r, nil
}

// =============================================================================
// Placement (result matched against cells)
// =============================================================================

// Placement is a layout result resolved against the cells it was computed
// for. Entries whose originating cell disappeared between the layout request
// and its completion carry a nil cell reference and are skipped by Apply.
type Placement struct {
	Nodes  []PlacedNode
	Edges  []RoutedEdge
	Width  float64
	Height float64
}

// PlacedNode pairs computed geometry with the diagram node it belongs to.
type PlacedNode struct {
	ID     string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Node   *diagram.Node
}

// RoutedEdge pairs a computed vertex list with the diagram edge it belongs
// to. Points holds intermediate bends only; the endpoints stay anchored to
// the node boxes.
type RoutedEdge struct {
	ID     string
	Points []diagram.Point
	Edge   *diagram.Edge
}
