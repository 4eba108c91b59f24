// Package graphviz implements the layout engine contract on top of the
// goccy/go-graphviz WebAssembly build of Graphviz.
//
// Descriptors are translated to DOT source, laid out by the requested
// Graphviz engine (dot, fdp, neato, twopi, or circo), and read back from the
// plain output format. All geometry is converted from Graphviz inches with a
// bottom-left origin into diagram points with a top-left origin.
//
// The engine supports warm starts: Warm boots one WebAssembly instance that
// subsequent layouts reuse, which drops per-run latency considerably. An
// engine that was never warmed initializes a throwaway instance per call. A
// warmed engine is not safe for concurrent use; the layout worker serializes
// access to it.
package graphviz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// FormatPlain selects the Graphviz plain text output format, which carries
// the computed geometry in an easily parsed line protocol.
const FormatPlain = graphviz.Format("plain")

// Engine runs Graphviz layouts. The zero value is not usable; create
// instances with New.
type Engine struct {
	gv *graphviz.Graphviz // non-nil only after a successful Warm
}

var _ layout.WarmEngine = (*Engine)(nil)

// New creates a cold engine. Call Warm to boot a reusable WebAssembly
// instance, or just call Layout to run with a per-call instance.
func New() *Engine {
	return &Engine{}
}

// Warm boots the WebAssembly instance reused by later runs. Calling Warm on
// an already warm engine is a no-op.
func (e *Engine) Warm(ctx context.Context) error {
	if e.gv != nil {
		return nil
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	e.gv = gv
	return nil
}

// Close releases the warm instance, if any.
func (e *Engine) Close() error {
	if e.gv == nil {
		return nil
	}
	gv := e.gv
	e.gv = nil
	return gv.Close()
}

// Layout computes positions and edge routes for the descriptor.
func (e *Engine) Layout(ctx context.Context, desc *layout.Descriptor) (*layout.Result, error) {
	doc := buildDOT(desc)
	out, err := e.render(ctx, doc.source, FormatPlain)
	if err != nil {
		return nil, err
	}
	return parsePlain(out, doc)
}

// render runs one Graphviz pass over DOT source, using the warm instance
// when present and a throwaway one otherwise.
func (e *Engine) render(ctx context.Context, dot []byte, format graphviz.Format) ([]byte, error) {
	gv := e.gv
	if gv == nil {
		fresh, err := graphviz.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("init graphviz: %w", err)
		}
		defer fresh.Close()
		gv = fresh
	}

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
