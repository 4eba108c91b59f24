package layout

import (
	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// RootID is the descriptor ID used for the implicit root container.
const RootID = "root"

// Convert builds a layout descriptor from diagram cells. Node sizes come
// from the cell when AutoSize is set and both dimensions are positive,
// otherwise from the option defaults. Edges whose endpoints are not both in
// the node slice are dropped, so a sub-selection of a graph converts
// cleanly.
func Convert(nodes []*diagram.Node, edges []*diagram.Edge, opts Options) *Descriptor {
	opts.SetDefaults()

	desc := &Descriptor{
		ID:       RootID,
		Options:  opts.DirectiveSet(),
		Children: make([]Child, 0, len(nodes)),
		Edges:    make([]Link, 0, len(edges)),
	}

	included := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if n == nil || n.ID == "" || included[n.ID] {
			continue
		}
		included[n.ID] = true

		w, h := opts.DefaultWidth, opts.DefaultHeight
		if opts.AutoSize && n.Width > 0 && n.Height > 0 {
			w, h = n.Width, n.Height
		}
		child := Child{
			ID:     n.ID,
			Width:  w,
			Height: h,
			Label:  n.DisplayLabel(),
		}
		if opts.IncludeNodeData {
			child.Data = nodePayload(n)
		}
		desc.Children = append(desc.Children, child)
	}

	for _, e := range edges {
		if e == nil || !included[e.Source] || !included[e.Target] {
			continue
		}
		link := Link{
			ID:      e.ID,
			Sources: []string{e.Source},
			Targets: []string{e.Target},
		}
		if opts.IncludeEdgeData {
			link.Data = edgePayload(e)
		}
		desc.Edges = append(desc.Edges, link)
	}
	return desc
}

// ConvertGraph converts every cell of a graph.
func ConvertGraph(g *diagram.Graph, opts Options) *Descriptor {
	return Convert(g.Nodes(), g.Edges(), opts)
}

func nodePayload(n *diagram.Node) map[string]any {
	data := map[string]any{
		"id":     n.ID,
		"x":      n.X,
		"y":      n.Y,
		"width":  n.Width,
		"height": n.Height,
	}
	if n.Label != "" {
		data["label"] = n.Label
	}
	if len(n.Attrs) > 0 {
		data["attrs"] = map[string]any(n.Attrs)
	}
	return data
}

func edgePayload(e *diagram.Edge) map[string]any {
	data := map[string]any{
		"id":     e.ID,
		"source": e.Source,
		"target": e.Target,
	}
	if len(e.Attrs) > 0 {
		data["attrs"] = map[string]any(e.Attrs)
	}
	return data
}

// MapResult matches a layout result against the cells it was computed for.
// Result entries with no matching cell keep their geometry but carry a nil
// cell reference; cells with no result entry are simply absent from the
// placement and keep their current geometry when applied.
func MapResult(res *Result, nodes []*diagram.Node, edges []*diagram.Edge, opts Options) *Placement {
	opts.SetDefaults()

	p := &Placement{Width: res.Width, Height: res.Height}
	if len(res.Nodes) == 0 && len(res.Edges) == 0 {
		return p
	}

	nodeByID := make(map[string]*diagram.Node, len(nodes))
	for _, n := range nodes {
		if n != nil {
			nodeByID[n.ID] = n
		}
	}
	edgeByID := make(map[string]*diagram.Edge, len(edges))
	for _, e := range edges {
		if e != nil {
			edgeByID[e.ID] = e
		}
	}

	p.Nodes = make([]PlacedNode, 0, len(res.Nodes))
	for _, nr := range res.Nodes {
		w, h := nr.Width, nr.Height
		if w <= 0 {
			w = opts.DefaultWidth
		}
		if h <= 0 {
			h = opts.DefaultHeight
		}
		p.Nodes = append(p.Nodes, PlacedNode{
			ID:     nr.ID,
			X:      nr.X,
			Y:      nr.Y,
			Width:  w,
			Height: h,
			Node:   nodeByID[nr.ID],
		})
	}

	p.Edges = make([]RoutedEdge, 0, len(res.Edges))
	for _, er := range res.Edges {
		routed := RoutedEdge{ID: er.ID, Edge: edgeByID[er.ID]}
		// Only the first section matters for flat graphs; bends become the
		// edge vertices while endpoints stay anchored to the node boxes.
		if len(er.Sections) > 0 {
			bends := er.Sections[0].Bends
			if len(bends) > 0 {
				routed.Points = make([]diagram.Point, len(bends))
				copy(routed.Points, bends)
			}
		}
		p.Edges = append(p.Edges, routed)
	}
	return p
}
