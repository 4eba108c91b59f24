package graphviz

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// pointsPerInch converts between diagram points and Graphviz inches.
const pointsPerInch = 72.0

// graphviz enforces a lower bound on nodesep and ranksep.
const minSepInches = 0.02

// algorithmEngines maps the neutral algorithm names onto Graphviz layout
// engines.
var algorithmEngines = map[string]string{
	layout.AlgorithmLayered:  "dot",
	layout.AlgorithmForce:    "fdp",
	layout.AlgorithmStress:   "neato",
	layout.AlgorithmRadial:   "twopi",
	layout.AlgorithmCircular: "circo",
}

var directionRanks = map[string]string{
	layout.DirectionDown:  "TB",
	layout.DirectionUp:    "BT",
	layout.DirectionRight: "LR",
	layout.DirectionLeft:  "RL",
}

var routingSplines = map[string]string{
	layout.RoutingOrthogonal: "ortho",
	layout.RoutingPolyline:   "polyline",
	layout.RoutingCurved:     "curved",
	layout.RoutingStraight:   "line",
}

// document carries generated DOT source together with the alias bookkeeping
// needed to translate plain output back into descriptor IDs. Children are
// renamed n0, n1, ... so arbitrary IDs never fight the DOT grammar.
type document struct {
	source  []byte
	nodeIDs map[string]string    // alias -> child ID
	edgeIDs map[edgeKey][]string // alias pair -> queued link IDs, FIFO
}

type edgeKey struct {
	tail string
	head string
}

// DOT renders a descriptor to Graphviz DOT source. The output is
// deterministic for a given descriptor.
func DOT(desc *layout.Descriptor) []byte {
	return buildDOT(desc).source
}

func buildDOT(desc *layout.Descriptor) *document {
	doc := &document{
		nodeIDs: make(map[string]string, len(desc.Children)),
		edgeIDs: make(map[edgeKey][]string, len(desc.Edges)),
	}
	aliases := make(map[string]string, len(desc.Children))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	for _, attr := range graphAttrs(desc.Options) {
		fmt.Fprintf(&buf, "  %s=%q;\n", attr.key, attr.value)
	}
	buf.WriteString("  node [shape=box, fixedsize=true];\n")
	buf.WriteString("\n")

	for i, c := range desc.Children {
		alias := "n" + strconv.Itoa(i)
		aliases[c.ID] = alias
		doc.nodeIDs[alias] = c.ID

		label := c.Label
		if label == "" {
			label = c.ID
		}
		fmt.Fprintf(&buf, "  %s [label=%q, width=%s, height=%s];\n",
			alias, label, inches(c.Width), inches(c.Height))
	}

	buf.WriteString("\n")
	for _, l := range desc.Edges {
		if len(l.Sources) == 0 || len(l.Targets) == 0 {
			continue
		}
		// Multi-endpoint links collapse to their first source and target.
		tail, tok := aliases[l.Sources[0]]
		head, hok := aliases[l.Targets[0]]
		if !tok || !hok {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", tail, head)
		key := edgeKey{tail: tail, head: head}
		doc.edgeIDs[key] = append(doc.edgeIDs[key], l.ID)
	}

	buf.WriteString("}\n")
	doc.source = buf.Bytes()
	return doc
}

type graphAttr struct {
	key   string
	value string
}

// graphAttrs translates layout directives into Graphviz graph attributes.
// Directives the engine does not understand are dropped; "graphviz." prefixed
// directives pass through raw and win over computed attributes. Spacing
// semantics are approximate: edge-to-node clearance maps onto esep and
// edge-to-edge clearance onto sep, the closest native knobs.
func graphAttrs(directives map[string]string) []graphAttr {
	attrs := map[string]string{
		"layout":  "dot",
		"bgcolor": "transparent",
	}

	for _, key := range slices.Sorted(maps.Keys(directives)) {
		value := directives[key]
		switch key {
		case layout.DirectiveAlgorithm:
			if engine, ok := algorithmEngines[value]; ok {
				attrs["layout"] = engine
			}
		case layout.DirectiveDirection:
			if rank, ok := directionRanks[value]; ok {
				attrs["rankdir"] = rank
			}
		case layout.DirectiveNodeSpacing:
			if v, ok := parsePoints(value); ok {
				attrs["nodesep"] = inches(v)
			}
		case layout.DirectiveLayerSpacing:
			if v, ok := parsePoints(value); ok {
				attrs["ranksep"] = inches(v)
			}
		case layout.DirectiveEdgeNodeSpacing:
			if v, ok := parsePoints(value); ok {
				attrs["esep"] = "+" + strconv.Itoa(int(v))
			}
		case layout.DirectiveEdgeEdgeSpacing:
			if v, ok := parsePoints(value); ok {
				attrs["sep"] = "+" + strconv.Itoa(int(v))
			}
		case layout.DirectiveEdgeRouting:
			if splines, ok := routingSplines[value]; ok {
				attrs["splines"] = splines
			}
		}
	}

	// Raw passthrough last so callers can override anything computed above.
	for _, key := range slices.Sorted(maps.Keys(directives)) {
		if name, ok := strings.CutPrefix(key, "graphviz."); ok && name != "" {
			attrs[name] = directives[key]
		}
	}

	out := make([]graphAttr, 0, len(attrs))
	for _, key := range slices.Sorted(maps.Keys(attrs)) {
		out = append(out, graphAttr{key: key, value: attrs[key]})
	}
	return out
}

func parsePoints(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func inches(points float64) string {
	in := points / pointsPerInch
	if in < minSepInches {
		in = minSepInches
	}
	return strconv.FormatFloat(in, 'f', 4, 64)
}
