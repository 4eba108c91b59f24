package layout

import (
	"testing"
)

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Algorithm != AlgorithmLayered || o.Direction != DirectionDown {
		t.Errorf("defaults = %s/%s, want layered/down", o.Algorithm, o.Direction)
	}
	if o.NodeSpacing != DefaultNodeSpacing || o.LayerSpacing != DefaultLayerSpacing {
		t.Errorf("spacing defaults = %v/%v", o.NodeSpacing, o.LayerSpacing)
	}
	if o.DefaultWidth != DefaultNodeWidth || o.DefaultHeight != DefaultNodeHeight {
		t.Errorf("size defaults = %v/%v", o.DefaultWidth, o.DefaultHeight)
	}

	// Set fields survive repeated calls.
	o.Algorithm = AlgorithmForce
	o.SetDefaults()
	if o.Algorithm != AlgorithmForce {
		t.Error("SetDefaults overwrote an explicit algorithm")
	}
}

func TestDirectiveSetSpacingFloor(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "below floor", in: 1, want: "16"},
		{name: "at floor", in: 16, want: "16"},
		{name: "above floor", in: 42.5, want: "42.5"},
		{name: "negative", in: -10, want: "16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Options{
				NodeSpacing:     tt.in,
				LayerSpacing:    tt.in,
				EdgeNodeSpacing: tt.in,
				EdgeEdgeSpacing: tt.in,
			}
			set := o.DirectiveSet()
			for _, key := range []string{
				DirectiveNodeSpacing, DirectiveLayerSpacing,
				DirectiveEdgeNodeSpacing, DirectiveEdgeEdgeSpacing,
			} {
				if tt.in == 0 {
					continue // zero means unset, filled by defaults
				}
				if set[key] != tt.want {
					t.Errorf("%s = %q, want %q", key, set[key], tt.want)
				}
			}
		})
	}
}

func TestDirectiveSetMergeOrder(t *testing.T) {
	o := Options{
		Algorithm: AlgorithmForce,
		Directives: map[string]string{
			DirectiveAlgorithm: "layered",    // caller override beats the field
			"graphviz.overlap": "scale",      // caller override beats tuning
			"custom.flag":      "passthrough, with comma",
		},
	}
	set := o.DirectiveSet()
	if set[DirectiveAlgorithm] != "layered" {
		t.Errorf("algorithm = %q, caller override should win", set[DirectiveAlgorithm])
	}
	if set["graphviz.overlap"] != "scale" {
		t.Errorf("graphviz.overlap = %q, caller override should win", set["graphviz.overlap"])
	}
	if set["custom.flag"] != "passthrough, with comma" {
		t.Errorf("unknown directive not passed through: %q", set["custom.flag"])
	}
	if set["graphviz.mclimit"] != "2" {
		t.Errorf("tuning directive missing: mclimit = %q", set["graphviz.mclimit"])
	}
}

func TestDirectiveSetDoesNotMutateOptions(t *testing.T) {
	o := Options{Directives: map[string]string{"k": "v"}}
	_ = o.DirectiveSet()
	if len(o.Directives) != 1 {
		t.Error("DirectiveSet mutated the caller directives")
	}
	if o.Algorithm != "" {
		t.Error("DirectiveSet mutated the receiver")
	}
}

func TestValidators(t *testing.T) {
	if !IsAlgorithm(AlgorithmStress) || IsAlgorithm("magic") {
		t.Error("IsAlgorithm misclassified")
	}
	if !IsDirection(DirectionLeft) || IsDirection("sideways") {
		t.Error("IsDirection misclassified")
	}
	if !IsRouting(RoutingCurved) || IsRouting("wavy") {
		t.Error("IsRouting misclassified")
	}
	if len(Algorithms()) != 5 || len(Directions()) != 4 || len(Routings()) != 4 {
		t.Error("enumerations out of sync with constants")
	}
}
