package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/neatgraph/neatgraph/pkg/cache"
	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"svg", false},
		{"png", false},
		{"dot", false},
		{"pdf", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidatePreset(t *testing.T) {
	tests := []struct {
		preset  string
		wantErr bool
	}{
		{"flowchart", false},
		{"network", false},
		{"auto", false},
		{"spiral", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidatePreset(tt.preset)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePreset(%q) error = %v, wantErr %v", tt.preset, err, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Empty options should pass: %v", err)
	}

	if opts.Preset != DefaultPreset {
		t.Errorf("Preset should be %s, got %s", DefaultPreset, opts.Preset)
	}
	if opts.Logger == nil {
		t.Error("Logger should be defaulted")
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad preset", Options{Preset: "spiral"}},
		{"bad algorithm", Options{Algorithm: "simplex"}},
		{"bad direction", Options{Direction: "sideways"}},
		{"bad routing", Options{EdgeRouting: "zigzag"}},
		{"bad format", Options{Formats: []string{"gif"}}},
	}

	for _, tt := range tests {
		if err := tt.opts.ValidateAndSetDefaults(); err == nil {
			t.Errorf("%s should fail validation", tt.name)
		}
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Preset: "compact"}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	// Second call must not re-validate mutated fields.
	opts.Preset = "spiral"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Second validation should be a no-op: %v", err)
	}
}

func TestOptionsIsAuto(t *testing.T) {
	opts := Options{}
	if opts.IsAuto() {
		t.Error("Empty preset should not be auto")
	}

	opts.Preset = PresetAuto
	if !opts.IsAuto() {
		t.Error("auto preset should be auto")
	}
}

func TestEffectivePreset(t *testing.T) {
	opts := Options{Preset: "radial"}
	if got := opts.EffectivePreset(layout.Traits{}); got != "radial" {
		t.Errorf("Named preset should pass through, got %s", got)
	}

	opts = Options{}
	if got := opts.EffectivePreset(layout.Traits{}); got != DefaultPreset {
		t.Errorf("Empty preset should default to %s, got %s", DefaultPreset, got)
	}

	// Dense traits pick the force-directed network preset.
	opts = Options{Preset: PresetAuto}
	dense := layout.Traits{Nodes: 50, Edges: 150, Density: 3, MaxDegree: 12}
	if got := opts.EffectivePreset(dense); got != layout.PresetNetwork {
		t.Errorf("Dense traits should select network, got %s", got)
	}
}

func TestLayoutOptionsOverrides(t *testing.T) {
	opts := Options{
		Preset:      "compact",
		Direction:   layout.DirectionRight,
		NodeSpacing: 99,
	}

	lo := opts.LayoutOptions(layout.Traits{})
	if lo.Algorithm != layout.AlgorithmLayered {
		t.Errorf("Algorithm should come from the preset, got %s", lo.Algorithm)
	}
	if lo.Direction != layout.DirectionRight {
		t.Errorf("Direction override lost, got %s", lo.Direction)
	}
	if lo.NodeSpacing != 99 {
		t.Errorf("NodeSpacing override lost, got %v", lo.NodeSpacing)
	}
	if lo.LayerSpacing != 28 {
		t.Errorf("LayerSpacing should keep the compact value, got %v", lo.LayerSpacing)
	}
}

func TestLayoutOptionsDirectives(t *testing.T) {
	opts := Options{
		Directives: map[string]string{"graphviz.overlap": "true"},
	}

	lo := opts.LayoutOptions(layout.Traits{})
	if lo.Directives["graphviz.overlap"] != "true" {
		t.Errorf("Caller directive lost, got %v", lo.Directives)
	}
}

func TestLayoutOptionsAuto(t *testing.T) {
	opts := Options{Preset: PresetAuto}
	dense := layout.Traits{Nodes: 50, Edges: 150, Density: 3, MaxDegree: 12}

	lo := opts.LayoutOptions(dense)
	if lo.Algorithm != layout.AlgorithmForce {
		t.Errorf("Dense traits should select the force algorithm, got %s", lo.Algorithm)
	}
	// Spacing grows with node count: 60 * (1 + 50*0.005) = 75.
	if lo.NodeSpacing != 75 {
		t.Errorf("NodeSpacing should be scaled to 75, got %v", lo.NodeSpacing)
	}
}

// =============================================================================
// Runner
// =============================================================================

type fakeEngine struct {
	calls int
	fail  bool
}

func (e *fakeEngine) Layout(_ context.Context, desc *layout.Descriptor) (*layout.Result, error) {
	e.calls++
	if e.fail {
		return nil, fmt.Errorf("engine down")
	}
	res := &layout.Result{Width: 400, Height: 300}
	for i, c := range desc.Children {
		res.Nodes = append(res.Nodes, layout.NodeResult{
			ID:     c.ID,
			X:      float64(i+1) * 10,
			Y:      float64(i+1) * 20,
			Width:  c.Width,
			Height: c.Height,
		})
	}
	for _, l := range desc.Edges {
		res.Edges = append(res.Edges, layout.EdgeRoute{ID: l.ID})
	}
	return res, nil
}

type fakeRenderer struct {
	svgCalls int
	pngCalls int
}

func (r *fakeRenderer) DOT(desc *layout.Descriptor) []byte {
	return []byte(fmt.Sprintf("digraph{n=%d}", len(desc.Children)))
}

func (r *fakeRenderer) RenderSVG(context.Context, *layout.Descriptor) ([]byte, error) {
	r.svgCalls++
	return []byte("<svg/>"), nil
}

func (r *fakeRenderer) RenderPNG(context.Context, *layout.Descriptor) ([]byte, error) {
	r.pngCalls++
	return []byte("PNG"), nil
}

func testGraph(t *testing.T) *diagram.Graph {
	t.Helper()
	g := diagram.New(nil)
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(diagram.Node{ID: id, Width: 80, Height: 40}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, pair := range [][2]string{{"a", "b"}, {"b", "c"}} {
		if err := g.AddEdge(diagram.Edge{Source: pair[0], Target: pair[1]}); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", pair[0], pair[1], err)
		}
	}
	return g
}

func newTestRunner(t *testing.T) (*Runner, *fakeEngine, *fakeRenderer) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	engine := &fakeEngine{}
	renderer := &fakeRenderer{}
	runner := NewRunner(layout.New(engine, layout.Config{Logger: logger}), renderer, c, nil, logger)
	return runner, engine, renderer
}

func TestRunnerExecute(t *testing.T) {
	runner, engine, _ := newTestRunner(t)
	g := testGraph(t)

	result, err := runner.Execute(context.Background(), g, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Diagram != g {
		t.Error("Result should reference the input diagram")
	}
	if result.DiagramHash == "" {
		t.Error("DiagramHash should be set")
	}
	if result.Preset != DefaultPreset {
		t.Errorf("Preset should be %s, got %s", DefaultPreset, result.Preset)
	}
	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("Stats counts wrong: %+v", result.Stats)
	}
	if engine.calls != 1 {
		t.Errorf("Engine should run once, ran %d times", engine.calls)
	}

	// Geometry is applied onto the diagram.
	b, _ := g.Node("b")
	if b.X != 20 || b.Y != 40 {
		t.Errorf("Node b should sit at (20, 40), got (%v, %v)", b.X, b.Y)
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("No formats requested, got artifacts %v", result.Artifacts)
	}
}

func TestRunnerExecuteEmptyDiagram(t *testing.T) {
	runner, engine, _ := newTestRunner(t)

	result, err := runner.Execute(context.Background(), diagram.New(nil), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.NodeCount != 0 {
		t.Errorf("NodeCount should be 0, got %d", result.Stats.NodeCount)
	}
	if engine.calls != 0 {
		t.Error("Empty diagram should not reach the engine")
	}
}

func TestRunnerExecuteLayoutCache(t *testing.T) {
	runner, engine, _ := newTestRunner(t)

	first, err := runner.Execute(context.Background(), testGraph(t), Options{})
	if err != nil {
		t.Fatalf("First execute: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("First run should miss the layout cache")
	}

	// An identical fresh diagram hashes to the same key.
	second, err := runner.Execute(context.Background(), testGraph(t), Options{})
	if err != nil {
		t.Fatalf("Second execute: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("Second run should hit the layout cache")
	}
	if engine.calls != 1 {
		t.Errorf("Engine should run once across both, ran %d times", engine.calls)
	}

	// Cached geometry still applies to the fresh diagram.
	b, _ := second.Diagram.Node("b")
	if b.X != 20 || b.Y != 40 {
		t.Errorf("Cached layout not applied, node b at (%v, %v)", b.X, b.Y)
	}
}

func TestRunnerExecuteRefresh(t *testing.T) {
	runner, engine, _ := newTestRunner(t)

	if _, err := runner.Execute(context.Background(), testGraph(t), Options{}); err != nil {
		t.Fatalf("First execute: %v", err)
	}

	result, err := runner.Execute(context.Background(), testGraph(t), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Refresh execute: %v", err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("Refresh should bypass the cache read")
	}
	if engine.calls != 2 {
		t.Errorf("Refresh should rerun the engine, ran %d times", engine.calls)
	}
}

func TestRunnerExecuteArtifacts(t *testing.T) {
	runner, _, renderer := newTestRunner(t)
	g := testGraph(t)

	result, err := runner.Execute(context.Background(), g, Options{
		Formats: []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(result.Artifacts) != 4 {
		t.Fatalf("Expected 4 artifacts, got %d", len(result.Artifacts))
	}
	if string(result.Artifacts[FormatDOT]) != "digraph{n=3}" {
		t.Errorf("DOT artifact wrong: %s", result.Artifacts[FormatDOT])
	}
	if string(result.Artifacts[FormatSVG]) != "<svg/>" {
		t.Errorf("SVG artifact wrong: %s", result.Artifacts[FormatSVG])
	}
	if renderer.svgCalls != 1 || renderer.pngCalls != 1 {
		t.Errorf("Renderer calls wrong: svg=%d png=%d", renderer.svgCalls, renderer.pngCalls)
	}

	// The json artifact is the laid-out diagram.
	decoded, err := diagram.UnmarshalGraph(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("Unmarshal json artifact: %v", err)
	}
	b, ok := decoded.Node("b")
	if !ok || b.X != 20 || b.Y != 40 {
		t.Errorf("json artifact should carry applied positions, got %+v", b)
	}
}

func TestRunnerExecuteArtifactCache(t *testing.T) {
	runner, _, renderer := newTestRunner(t)
	opts := Options{Formats: []string{FormatSVG}}

	first, err := runner.Execute(context.Background(), testGraph(t), opts)
	if err != nil {
		t.Fatalf("First execute: %v", err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("First run should miss the artifact cache")
	}

	second, err := runner.Execute(context.Background(), testGraph(t), opts)
	if err != nil {
		t.Fatalf("Second execute: %v", err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("Second run should hit the artifact cache")
	}
	if renderer.svgCalls != 1 {
		t.Errorf("Renderer should run once across both, ran %d times", renderer.svgCalls)
	}
	if string(second.Artifacts[FormatSVG]) != "<svg/>" {
		t.Errorf("Cached artifact wrong: %s", second.Artifacts[FormatSVG])
	}
}

func TestRunnerExecuteNoRenderer(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := NewRunner(layout.New(&fakeEngine{}, layout.Config{Logger: logger}), nil, c, nil, logger)

	// json needs no renderer.
	result, err := runner.Execute(context.Background(), testGraph(t), Options{Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatalf("json-only execute: %v", err)
	}
	if len(result.Artifacts[FormatJSON]) == 0 {
		t.Error("json artifact missing")
	}

	// Visual formats do.
	_, err = runner.Execute(context.Background(), testGraph(t), Options{Formats: []string{FormatSVG}})
	if err == nil || !strings.Contains(err.Error(), "no renderer") {
		t.Errorf("Expected renderer error, got %v", err)
	}
}

func TestRunnerExecuteEngineError(t *testing.T) {
	runner, engine, _ := newTestRunner(t)
	engine.fail = true

	_, err := runner.Execute(context.Background(), testGraph(t), Options{})
	if err == nil || !strings.Contains(err.Error(), "layout:") {
		t.Errorf("Expected layout stage error, got %v", err)
	}
}

func TestRunnerExecuteNilDiagram(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	if _, err := runner.Execute(context.Background(), nil, Options{}); err == nil {
		t.Error("nil diagram should fail")
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	_, err := runner.Execute(context.Background(), testGraph(t), Options{Preset: "spiral"})
	if err == nil || !strings.Contains(err.Error(), "invalid options") {
		t.Errorf("Expected options error, got %v", err)
	}
}

func TestRunnerComputeLayoutWithCacheInfo(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	res, hit, err := runner.ComputeLayoutWithCacheInfo(context.Background(), testGraph(t), Options{})
	if err != nil {
		t.Fatalf("ComputeLayoutWithCacheInfo: %v", err)
	}
	if hit {
		t.Error("First computation should miss")
	}
	if len(res.Nodes) != 3 {
		t.Errorf("Expected 3 node results, got %d", len(res.Nodes))
	}

	_, hit, err = runner.ComputeLayoutWithCacheInfo(context.Background(), testGraph(t), Options{})
	if err != nil {
		t.Fatalf("Second computation: %v", err)
	}
	if !hit {
		t.Error("Second computation should hit")
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil, nil)

	if runner.Cache == nil || runner.Keyer == nil || runner.Logger == nil {
		t.Error("NewRunner should fill nil collaborators")
	}

	_, err := runner.Execute(context.Background(), testGraph(t), Options{})
	if err == nil || !strings.Contains(err.Error(), "no layouter") {
		t.Errorf("Expected layouter error, got %v", err)
	}
}
