package layout

import (
	"maps"
	"slices"
)

// Preset names, ordered from most to least commonly used.
const (
	PresetFlowchart = "flowchart"
	PresetHierarchy = "hierarchy"
	PresetNetwork   = "network"
	PresetCircular  = "circular"
	PresetRadial    = "radial"
	PresetSpacious  = "spacious"
	PresetCompact   = "compact"
)

// DefaultPreset is the preset used when none is requested or the requested
// name is unknown.
const DefaultPreset = PresetFlowchart

var presets = map[string]Options{
	PresetFlowchart: {
		Algorithm:       AlgorithmLayered,
		Direction:       DirectionDown,
		NodeSpacing:     50,
		LayerSpacing:    50,
		EdgeNodeSpacing: 20,
		EdgeEdgeSpacing: 16,
		EdgeRouting:     RoutingOrthogonal,
		AutoSize:        true,
	},
	PresetHierarchy: {
		Algorithm:       AlgorithmLayered,
		Direction:       DirectionDown,
		NodeSpacing:     30,
		LayerSpacing:    80,
		EdgeNodeSpacing: 16,
		EdgeEdgeSpacing: 16,
		EdgeRouting:     RoutingPolyline,
		AutoSize:        true,
	},
	PresetNetwork: {
		Algorithm:       AlgorithmForce,
		Direction:       DirectionDown,
		NodeSpacing:     60,
		LayerSpacing:    60,
		EdgeNodeSpacing: 24,
		EdgeEdgeSpacing: 20,
		EdgeRouting:     RoutingCurved,
		AutoSize:        true,
	},
	PresetCircular: {
		Algorithm:       AlgorithmCircular,
		Direction:       DirectionDown,
		NodeSpacing:     40,
		LayerSpacing:    60,
		EdgeNodeSpacing: 20,
		EdgeEdgeSpacing: 16,
		EdgeRouting:     RoutingCurved,
		AutoSize:        true,
	},
	PresetRadial: {
		Algorithm:       AlgorithmRadial,
		Direction:       DirectionDown,
		NodeSpacing:     40,
		LayerSpacing:    60,
		EdgeNodeSpacing: 20,
		EdgeEdgeSpacing: 16,
		EdgeRouting:     RoutingPolyline,
		AutoSize:        true,
	},
	PresetSpacious: {
		Algorithm:       AlgorithmLayered,
		Direction:       DirectionDown,
		NodeSpacing:     90,
		LayerSpacing:    110,
		EdgeNodeSpacing: 30,
		EdgeEdgeSpacing: 24,
		EdgeRouting:     RoutingOrthogonal,
		AutoSize:        true,
	},
	PresetCompact: {
		Algorithm:       AlgorithmLayered,
		Direction:       DirectionDown,
		NodeSpacing:     24,
		LayerSpacing:    28,
		EdgeNodeSpacing: 16,
		EdgeEdgeSpacing: 16,
		EdgeRouting:     RoutingPolyline,
		AutoSize:        true,
	},
}

// Preset returns the option bundle for the named preset. Unknown names fall
// back to the flowchart preset so callers never have to pre-validate. The
// returned Options is an independent copy.
func Preset(name string) Options {
	opts, ok := presets[name]
	if !ok {
		opts = presets[DefaultPreset]
	}
	if opts.Directives != nil {
		opts.Directives = maps.Clone(opts.Directives)
	}
	return opts
}

// IsPreset reports whether name is a known preset.
func IsPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// PresetNames returns all preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
