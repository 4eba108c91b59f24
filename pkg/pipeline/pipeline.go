// Package pipeline wires the layout stages into a single reusable flow.
//
// This package implements the complete select → layout → apply → render
// pipeline that can be used by CLI, API, and worker components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: Resolve the effective layout options from a preset, measured
//     graph traits, and explicit overrides
//  2. Layout: Compute positions and edge routes for the diagram
//  3. Apply: Write the computed geometry back onto the diagram cells
//  4. Render: Generate output in various formats (JSON, SVG, PNG, DOT)
//
// The layout and render stages are cached; selection and apply are cheap
// enough to rerun on every call.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	engine := graphviz.New()
//	runner := pipeline.NewRunner(layout.New(engine, layout.Config{}), engine, c, nil, logger)
//	opts := pipeline.Options{
//	    Preset:  "flowchart",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run the layout stage alone:
//
//	res, err := runner.ComputeLayout(ctx, g, opts)
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Worker
// =============================================================================

// DefaultPreset is the preset used when Options.Preset is empty.
const DefaultPreset = layout.DefaultPreset

// PresetAuto selects a preset from the measured traits of the diagram
// instead of naming one directly.
const PresetAuto = "auto"

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options. Preset names an option bundle ("auto" picks one from
	// the measured traits); the remaining fields override individual values
	// from that bundle when set.
	Preset          string            `json:"preset,omitempty"`
	Algorithm       string            `json:"algorithm,omitempty"`
	Direction       string            `json:"direction,omitempty"`
	NodeSpacing     float64           `json:"node_spacing,omitempty"`
	LayerSpacing    float64           `json:"layer_spacing,omitempty"`
	EdgeNodeSpacing float64           `json:"edge_node_spacing,omitempty"`
	EdgeEdgeSpacing float64           `json:"edge_edge_spacing,omitempty"`
	EdgeRouting     string            `json:"edge_routing,omitempty"`
	Directives      map[string]string `json:"directives,omitempty"`

	// Render options. An empty Formats list skips the render stage.
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger          `json:"-"`
	Policy layout.DensityPolicy `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the graph the pipeline ran on, with final geometry applied.
	Diagram *diagram.Graph

	// DiagramHash is the content hash of the input diagram.
	DiagramHash string

	// Preset is the effective preset name after auto selection.
	Preset string

	// Layout is the raw engine result.
	Layout *layout.Result

	// Placement is the engine result matched back against the diagram cells.
	Placement *layout.Placement

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout result came from cache
	RenderHit bool // Whether all engine-rendered artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, json, png, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePreset checks that a preset name is valid.
func ValidatePreset(name string) error {
	if name == PresetAuto || layout.IsPreset(name) {
		return nil
	}
	valid := append([]string{PresetAuto}, layout.PresetNames()...)
	return fmt.Errorf("invalid preset: %q (must be one of: %s)", name, strings.Join(valid, ", "))
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. This method is idempotent - calling it multiple times has the
// same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults applies defaults for unset fields.
func (o *Options) SetDefaults() {
	if o.Preset == "" {
		o.Preset = DefaultPreset
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetDefaults()
	if err := ValidatePreset(o.Preset); err != nil {
		return err
	}
	if o.Algorithm != "" && !layout.IsAlgorithm(o.Algorithm) {
		return fmt.Errorf("invalid algorithm: %q (must be one of: %s)",
			o.Algorithm, strings.Join(layout.Algorithms(), ", "))
	}
	if o.Direction != "" && !layout.IsDirection(o.Direction) {
		return fmt.Errorf("invalid direction: %q (must be one of: %s)",
			o.Direction, strings.Join(layout.Directions(), ", "))
	}
	if o.EdgeRouting != "" && !layout.IsRouting(o.EdgeRouting) {
		return fmt.Errorf("invalid edge_routing: %q (must be one of: %s)",
			o.EdgeRouting, strings.Join(layout.Routings(), ", "))
	}
	return nil
}

// ValidateForRender validates the render options.
func (o *Options) ValidateForRender() error {
	return ValidateFormats(o.Formats)
}

// IsAuto returns true if the preset is selected from measured traits.
func (o *Options) IsAuto() bool {
	return o.Preset == PresetAuto
}

// EffectivePreset returns the preset name a run with these options uses. For
// auto selection the traits decide; otherwise the named (or default) preset
// is returned unchanged.
func (o *Options) EffectivePreset(t layout.Traits) string {
	if o.IsAuto() {
		return o.Policy.SelectPreset(t)
	}
	if o.Preset == "" {
		return DefaultPreset
	}
	return o.Preset
}

// LayoutOptions resolves the effective layout options: the preset bundle
// (auto selection consults the traits), then field overrides, then raw
// directives on top.
func (o *Options) LayoutOptions(t layout.Traits) layout.Options {
	var lo layout.Options
	if o.IsAuto() {
		lo = o.Policy.Select(t)
	} else {
		lo = layout.Preset(o.EffectivePreset(t))
	}

	if o.Algorithm != "" {
		lo.Algorithm = o.Algorithm
	}
	if o.Direction != "" {
		lo.Direction = o.Direction
	}
	if o.NodeSpacing > 0 {
		lo.NodeSpacing = o.NodeSpacing
	}
	if o.LayerSpacing > 0 {
		lo.LayerSpacing = o.LayerSpacing
	}
	if o.EdgeNodeSpacing > 0 {
		lo.EdgeNodeSpacing = o.EdgeNodeSpacing
	}
	if o.EdgeEdgeSpacing > 0 {
		lo.EdgeEdgeSpacing = o.EdgeEdgeSpacing
	}
	if o.EdgeRouting != "" {
		lo.EdgeRouting = o.EdgeRouting
	}
	if len(o.Directives) > 0 {
		if lo.Directives == nil {
			lo.Directives = make(map[string]string, len(o.Directives))
		}
		maps.Copy(lo.Directives, o.Directives)
	}
	lo.SetDefaults()
	return lo
}
