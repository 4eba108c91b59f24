package graphviz

import (
	"strings"
	"testing"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// chainDoc builds the alias bookkeeping for a three node chain a -> b -> c
// with 72x36 point boxes, matching the plain fixtures below.
func chainDoc() *document {
	desc := &layout.Descriptor{
		Children: []layout.Child{
			{ID: "a", Width: 72, Height: 36, Label: "A"},
			{ID: "b", Width: 72, Height: 36, Label: "B"},
			{ID: "c", Width: 72, Height: 36, Label: "C"},
		},
		Edges: []layout.Link{
			{ID: "a->b", Sources: []string{"a"}, Targets: []string{"b"}},
			{ID: "b->c", Sources: []string{"b"}, Targets: []string{"c"}},
		},
	}
	return buildDOT(desc)
}

// chainPlain mimics dot output for the chain: 2x4 inch canvas, nodes
// centered on x=1in, top to bottom.
const chainPlain = `graph 1 2 4
node n0 1 3.5 1 0.5 "A" solid box black white
node n1 1 2 1 0.5 "B" solid box black white
node n2 1 0.5 1 0.5 "C" solid box black white
edge n0 n1 4 1 3.25 1 3 1 2.5 1 2.25 solid black
edge n1 n2 4 1 1.75 1 1.5 1 1 1 0.75 solid black
stop
`

func TestParsePlainChain(t *testing.T) {
	res, err := parsePlain([]byte(chainPlain), chainDoc())
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}

	if res.Width != 144 || res.Height != 288 {
		t.Errorf("canvas = %vx%v, want 144x288", res.Width, res.Height)
	}
	if len(res.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(res.Nodes))
	}

	want := map[string]layout.NodeResult{
		"a": {ID: "a", X: 36, Y: 18, Width: 72, Height: 36},
		"b": {ID: "b", X: 36, Y: 126, Width: 72, Height: 36},
		"c": {ID: "c", X: 36, Y: 234, Width: 72, Height: 36},
	}
	lastY := -1.0
	for _, nr := range res.Nodes {
		w, ok := want[nr.ID]
		if !ok {
			t.Fatalf("unexpected node %q", nr.ID)
		}
		if nr != w {
			t.Errorf("node %q = %+v, want %+v", nr.ID, nr, w)
		}
		// Top to bottom flow: y strictly increases along the chain.
		if nr.Y <= lastY {
			t.Errorf("node %q y = %v, want strictly increasing", nr.ID, nr.Y)
		}
		lastY = nr.Y
	}

	if len(res.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(res.Edges))
	}
	first := res.Edges[0]
	if first.ID != "a->b" || len(first.Sections) != 1 {
		t.Fatalf("edge[0] = %+v", first)
	}
	sec := first.Sections[0]
	if sec.Start.Y != 54 || sec.End.Y != 126 {
		t.Errorf("section spans y %v..%v, want 54..126", sec.Start.Y, sec.End.Y)
	}
	if len(sec.Bends) != 2 {
		t.Fatalf("bends = %v, want 2", sec.Bends)
	}
	// Vertical route: every point shares the start x, so each segment is
	// axis aligned.
	for _, p := range append(sec.Bends, sec.End) {
		if p.X != sec.Start.X {
			t.Errorf("point %+v strays from x=%v", p, sec.Start.X)
		}
	}
}

func TestParsePlainParallelEdgesFIFO(t *testing.T) {
	desc := &layout.Descriptor{
		Children: []layout.Child{{ID: "a", Width: 72, Height: 36}, {ID: "b", Width: 72, Height: 36}},
		Edges: []layout.Link{
			{ID: "first", Sources: []string{"a"}, Targets: []string{"b"}},
			{ID: "second", Sources: []string{"a"}, Targets: []string{"b"}},
		},
	}
	plain := `graph 1 2 2
node n0 1 1.5 1 0.5 "a" solid box black white
node n1 1 0.5 1 0.5 "b" solid box black white
edge n0 n1 2 0.75 1.25 0.75 0.75 solid black
edge n0 n1 2 1.25 1.25 1.25 0.75 solid black
stop
`
	res, err := parsePlain([]byte(plain), buildDOT(desc))
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if len(res.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(res.Edges))
	}
	if res.Edges[0].ID != "first" || res.Edges[1].ID != "second" {
		t.Errorf("edge order = %q, %q; want first, second", res.Edges[0].ID, res.Edges[1].ID)
	}
	if res.Edges[0].Sections[0].Start.X == res.Edges[1].Sections[0].Start.X {
		t.Error("parallel edges collapsed onto the same route")
	}
}

func TestParsePlainDropsOrphans(t *testing.T) {
	plain := `graph 1 2 2
node n0 1 1.5 1 0.5 "a" solid box black white
node phantom 1 0.5 1 0.5 "?" solid box black white
edge n0 phantom 2 1 1.25 1 0.75 solid black
stop
`
	desc := &layout.Descriptor{Children: []layout.Child{{ID: "a", Width: 72, Height: 36}}}
	res, err := parsePlain([]byte(plain), buildDOT(desc))
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if len(res.Nodes) != 1 || res.Nodes[0].ID != "a" {
		t.Errorf("nodes = %+v, want only a", res.Nodes)
	}
	if len(res.Edges) != 0 {
		t.Errorf("edges = %+v, want none", res.Edges)
	}
}

func TestParsePlainMalformed(t *testing.T) {
	doc := chainDoc()
	tests := []struct {
		name  string
		plain string
	}{
		{name: "empty", plain: ""},
		{name: "missing stop", plain: "graph 1 2 4\n"},
		{name: "node before header", plain: "node n0 1 1 1 0.5 \"A\" solid box black white\nstop\n"},
		{name: "truncated node", plain: "graph 1 2 4\nnode n0 1 1\nstop\n"},
		{name: "bad number", plain: "graph 1 2 4\nnode n0 one 1 1 0.5 \"A\" solid box black white\nstop\n"},
		{name: "bad point count", plain: "graph 1 2 4\nedge n0 n1 x 1 1 solid black\nstop\n"},
		{name: "short edge", plain: "graph 1 2 4\nedge n0 n1 4 1 1 2 2 solid black\nstop\n"},
		{name: "bad header", plain: "graph 1 two 4\nstop\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePlain([]byte(tt.plain), doc); err == nil {
				t.Error("parsePlain() succeeded, want error")
			}
		})
	}
}

func TestSplitPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "plain fields", in: "node n0 1 2", want: []string{"node", "n0", "1", "2"}},
		{name: "quoted label", in: `node n0 "two words" solid`, want: []string{"node", "n0", "two words", "solid"}},
		{name: "escaped quote", in: `node "say \"hi\"" 1`, want: []string{"node", `say "hi"`, "1"}},
		{name: "tabs", in: "a\tb  c", want: []string{"a", "b", "c"}},
		{name: "empty", in: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPlain(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitPlain(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("field[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?>
<svg width="100pt" height="200pt" viewBox="0.00 -10.00 100.00 200.00" xmlns="http://www.w3.org/2000/svg">
<g></g>
</svg>`)
	out := string(normalizeViewBox(svg))
	if !strings.Contains(out, `viewBox="0 0 100.00 200.00"`) {
		t.Errorf("viewBox not normalized:\n%s", out)
	}
	if !strings.Contains(out, `width="100" height="200"`) {
		t.Errorf("dimensions not rewritten:\n%s", out)
	}

	plain := []byte("<svg>no viewbox</svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Error("svg without viewBox should pass through unchanged")
	}
}
