package graphviz

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// DOT returns the DOT source the engine would lay out for desc. The source
// fully determines the rendered artifacts, so it doubles as cache key
// material.
func (e *Engine) DOT(desc *layout.Descriptor) []byte {
	return DOT(desc)
}

// RenderSVG lays out the descriptor and renders it as SVG. The viewBox is
// normalized to start at the origin so the output embeds cleanly.
func (e *Engine) RenderSVG(ctx context.Context, desc *layout.Descriptor) ([]byte, error) {
	svg, err := e.render(ctx, DOT(desc), graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderPNG lays out the descriptor and renders it as PNG using the
// rasterizer bundled with the WebAssembly build.
func (e *Engine) RenderPNG(ctx context.Context, desc *layout.Descriptor) ([]byte, error) {
	return e.render(ctx, DOT(desc), graphviz.PNG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the drawing starts at
// (0, 0) with explicit pixel dimensions. Graphviz emits translated viewBoxes
// that confuse some embedders.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
