package layout

// DensityPolicy maps graph traits onto a layout preset. The zero value
// selects with the default thresholds; configuration files can override any
// subset of them.
type DensityPolicy struct {
	// SparseNodes and SparseDensity bound the "small and airy" case that
	// gets the spacious preset.
	SparseNodes   int     `json:"sparse_nodes,omitempty" toml:"sparse_nodes" yaml:"sparse_nodes"`
	SparseDensity float64 `json:"sparse_density,omitempty" toml:"sparse_density" yaml:"sparse_density"`

	// ModerateNodes and ModerateDegree bound the everyday flowchart case.
	ModerateNodes  int `json:"moderate_nodes,omitempty" toml:"moderate_nodes" yaml:"moderate_nodes"`
	ModerateDegree int `json:"moderate_degree,omitempty" toml:"moderate_degree" yaml:"moderate_degree"`

	// DenseDensity and DenseDegree trigger the force-directed network
	// preset, which copes better with heavily interconnected graphs.
	DenseDensity float64 `json:"dense_density,omitempty" toml:"dense_density" yaml:"dense_density"`
	DenseDegree  int     `json:"dense_degree,omitempty" toml:"dense_degree" yaml:"dense_degree"`

	// LargeNodes triggers the compact preset regardless of density.
	LargeNodes int `json:"large_nodes,omitempty" toml:"large_nodes" yaml:"large_nodes"`

	// SpacingStep grows every spacing value by this fraction per node, up
	// to SpacingCap. Bigger graphs need proportionally more room for edge
	// routing to stay readable.
	SpacingStep float64 `json:"spacing_step,omitempty" toml:"spacing_step" yaml:"spacing_step"`
	SpacingCap  float64 `json:"spacing_cap,omitempty" toml:"spacing_cap" yaml:"spacing_cap"`
}

// DefaultDensityPolicy returns the built-in thresholds.
func DefaultDensityPolicy() DensityPolicy {
	return DensityPolicy{
		SparseNodes:    12,
		SparseDensity:  1.2,
		ModerateNodes:  120,
		ModerateDegree: 6,
		DenseDensity:   2.5,
		DenseDegree:    10,
		LargeNodes:     400,
		SpacingStep:    0.005,
		SpacingCap:     2.0,
	}
}

func (p DensityPolicy) withDefaults() DensityPolicy {
	def := DefaultDensityPolicy()
	if p.SparseNodes <= 0 {
		p.SparseNodes = def.SparseNodes
	}
	if p.SparseDensity <= 0 {
		p.SparseDensity = def.SparseDensity
	}
	if p.ModerateNodes <= 0 {
		p.ModerateNodes = def.ModerateNodes
	}
	if p.ModerateDegree <= 0 {
		p.ModerateDegree = def.ModerateDegree
	}
	if p.DenseDensity <= 0 {
		p.DenseDensity = def.DenseDensity
	}
	if p.DenseDegree <= 0 {
		p.DenseDegree = def.DenseDegree
	}
	if p.LargeNodes <= 0 {
		p.LargeNodes = def.LargeNodes
	}
	if p.SpacingStep <= 0 {
		p.SpacingStep = def.SpacingStep
	}
	if p.SpacingCap < 1 {
		p.SpacingCap = def.SpacingCap
	}
	return p
}

// SelectPreset returns the name of the preset the policy picks for the
// measured traits. The decision order matters: small sparse graphs win over
// everything, then sheer size, then density.
func (p DensityPolicy) SelectPreset(t Traits) string {
	p = p.withDefaults()
	switch {
	case t.Nodes <= p.SparseNodes && t.Density <= p.SparseDensity:
		return PresetSpacious
	case t.Nodes >= p.LargeNodes:
		return PresetCompact
	case t.Density >= p.DenseDensity || t.MaxDegree >= p.DenseDegree:
		return PresetNetwork
	case t.Nodes <= p.ModerateNodes && t.MaxDegree <= p.ModerateDegree:
		return PresetFlowchart
	default:
		return PresetHierarchy
	}
}

// Select resolves the picked preset into options and scales its spacing
// with graph size, up to the policy cap. Bigger graphs get proportionally
// more room so edge routing stays readable.
func (p DensityPolicy) Select(t Traits) Options {
	p = p.withDefaults()
	opts := Preset(p.SelectPreset(t))

	factor := 1 + float64(t.Nodes)*p.SpacingStep
	if factor > p.SpacingCap {
		factor = p.SpacingCap
	}
	opts.NodeSpacing *= factor
	opts.LayerSpacing *= factor
	opts.EdgeNodeSpacing *= factor
	opts.EdgeEdgeSpacing *= factor
	return opts
}
