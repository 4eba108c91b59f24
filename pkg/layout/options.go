package layout

import (
	"slices"
	"strconv"
)

// Layout algorithms. Engines map these onto whatever they natively support.
const (
	AlgorithmLayered  = "layered"
	AlgorithmForce    = "force"
	AlgorithmStress   = "stress"
	AlgorithmRadial   = "radial"
	AlgorithmCircular = "circular"
)

// Flow directions for directional algorithms.
const (
	DirectionDown  = "down"
	DirectionUp    = "up"
	DirectionRight = "right"
	DirectionLeft  = "left"
)

// Edge routing styles.
const (
	RoutingOrthogonal = "orthogonal"
	RoutingPolyline   = "polyline"
	RoutingCurved     = "curved"
	RoutingStraight   = "straight"
)

// Directive keys understood by the bundled engines. Unknown keys are passed
// through untouched so engine-specific directives survive the trip.
const (
	DirectiveAlgorithm       = "algorithm"
	DirectiveDirection       = "direction"
	DirectiveNodeSpacing     = "spacing.node"
	DirectiveLayerSpacing    = "spacing.layer"
	DirectiveEdgeNodeSpacing = "spacing.edgeNode"
	DirectiveEdgeEdgeSpacing = "spacing.edgeEdge"
	DirectiveEdgeRouting     = "edgeRouting"
)

// Geometry defaults. MinSpacing is the floor every spacing value is clamped
// to; anything tighter produces overlapping boxes with common node sizes.
const (
	MinSpacing = 16.0

	DefaultNodeSpacing     = 50.0
	DefaultLayerSpacing    = 50.0
	DefaultEdgeNodeSpacing = 20.0
	DefaultEdgeEdgeSpacing = 16.0

	DefaultNodeWidth  = 80.0
	DefaultNodeHeight = 40.0
)

var validAlgorithms = []string{
	AlgorithmLayered, AlgorithmForce, AlgorithmStress, AlgorithmRadial, AlgorithmCircular,
}

var validDirections = []string{
	DirectionDown, DirectionUp, DirectionRight, DirectionLeft,
}

var validRoutings = []string{
	RoutingOrthogonal, RoutingPolyline, RoutingCurved, RoutingStraight,
}

// IsAlgorithm reports whether s names a known layout algorithm.
func IsAlgorithm(s string) bool { return slices.Contains(validAlgorithms, s) }

// IsDirection reports whether s names a known flow direction.
func IsDirection(s string) bool { return slices.Contains(validDirections, s) }

// IsRouting reports whether s names a known edge routing style.
func IsRouting(s string) bool { return slices.Contains(validRoutings, s) }

// Algorithms returns all known algorithm names.
func Algorithms() []string { return slices.Clone(validAlgorithms) }

// Directions returns all known direction names.
func Directions() []string { return slices.Clone(validDirections) }

// Routings returns all known routing style names.
func Routings() []string { return slices.Clone(validRoutings) }

// Options controls how a graph is converted into a layout descriptor.
// The zero value is usable; SetDefaults fills unset fields.
type Options struct {
	// Algorithm selects the layout algorithm (layered, force, stress,
	// radial, circular).
	Algorithm string `json:"algorithm,omitempty"`

	// Direction is the main flow direction for directional algorithms.
	Direction string `json:"direction,omitempty"`

	// Spacing values in diagram units. Values below MinSpacing are clamped
	// up when directives are built.
	NodeSpacing     float64 `json:"node_spacing,omitempty"`
	LayerSpacing    float64 `json:"layer_spacing,omitempty"`
	EdgeNodeSpacing float64 `json:"edge_node_spacing,omitempty"`
	EdgeEdgeSpacing float64 `json:"edge_edge_spacing,omitempty"`

	// EdgeRouting selects the edge routing style.
	EdgeRouting string `json:"edge_routing,omitempty"`

	// AutoSize uses each node's current dimensions when both are positive,
	// falling back to DefaultWidth and DefaultHeight otherwise. When false
	// every node is converted at the default size.
	AutoSize bool `json:"auto_size,omitempty"`

	// DefaultWidth and DefaultHeight are the fallback node dimensions.
	DefaultWidth  float64 `json:"default_width,omitempty"`
	DefaultHeight float64 `json:"default_height,omitempty"`

	// IncludeNodeData and IncludeEdgeData embed the originating cell payload
	// into the descriptor so engine-side tooling can inspect it.
	IncludeNodeData bool `json:"include_node_data,omitempty"`
	IncludeEdgeData bool `json:"include_edge_data,omitempty"`

	// Directives are raw engine directives merged last, so callers can
	// override anything the option fields computed.
	Directives map[string]string `json:"directives,omitempty"`
}

// SetDefaults fills unset fields with defaults. Calling it repeatedly is
// harmless.
func (o *Options) SetDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = AlgorithmLayered
	}
	if o.Direction == "" {
		o.Direction = DirectionDown
	}
	if o.NodeSpacing == 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.LayerSpacing == 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	if o.EdgeNodeSpacing == 0 {
		o.EdgeNodeSpacing = DefaultEdgeNodeSpacing
	}
	if o.EdgeEdgeSpacing == 0 {
		o.EdgeEdgeSpacing = DefaultEdgeEdgeSpacing
	}
	if o.EdgeRouting == "" {
		o.EdgeRouting = RoutingOrthogonal
	}
	if o.DefaultWidth == 0 {
		o.DefaultWidth = DefaultNodeWidth
	}
	if o.DefaultHeight == 0 {
		o.DefaultHeight = DefaultNodeHeight
	}
}

// tuningDirectives are fixed quality knobs attached to every descriptor.
// They sit between the computed directives and the caller overrides, so a
// caller can still disable any of them.
var tuningDirectives = map[string]string{
	"graphviz.overlap":     "false",
	"graphviz.mclimit":     "2",
	"graphviz.concentrate": "false",
}

// DirectiveSet resolves the options into the directive map handed to the
// engine. Spacing values are clamped to MinSpacing. Merge order: computed
// directives, then tuning directives, then caller Directives, so the caller
// always wins.
func (o Options) DirectiveSet() map[string]string {
	o.SetDefaults()
	set := map[string]string{
		DirectiveAlgorithm:       o.Algorithm,
		DirectiveDirection:       o.Direction,
		DirectiveNodeSpacing:     formatSpacing(o.NodeSpacing),
		DirectiveLayerSpacing:    formatSpacing(o.LayerSpacing),
		DirectiveEdgeNodeSpacing: formatSpacing(o.EdgeNodeSpacing),
		DirectiveEdgeEdgeSpacing: formatSpacing(o.EdgeEdgeSpacing),
		DirectiveEdgeRouting:     o.EdgeRouting,
	}
	for k, v := range tuningDirectives {
		set[k] = v
	}
	for k, v := range o.Directives {
		set[k] = v
	}
	return set
}

func formatSpacing(v float64) string {
	if v < MinSpacing {
		v = MinSpacing
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
