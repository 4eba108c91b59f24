package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/neatgraph/neatgraph/pkg/cache"
	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/observability"
)

// Renderer turns a layout descriptor into visual artifacts. The bundled
// graphviz engine implements it. DOT must be deterministic for a given
// descriptor: its output is hashed into the artifact cache keys.
type Renderer interface {
	DOT(desc *layout.Descriptor) []byte
	RenderSVG(ctx context.Context, desc *layout.Descriptor) ([]byte, error)
	RenderPNG(ctx context.Context, desc *layout.Descriptor) ([]byte, error)
}

// renderStage wraps artifact rendering with the pipeline hooks.
func (r *Runner) renderStage(ctx context.Context, g *diagram.Graph, desc *layout.Descriptor, opts Options) (map[string][]byte, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, hit, err := r.renderAll(ctx, g, desc, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

// renderAll produces every requested format. The json format is a local
// marshal of the laid-out diagram and the dot format is the engine input;
// neither is cached. The svg and png formats run the engine and are cached
// keyed on the DOT hash, which captures both geometry and labels.
func (r *Runner) renderAll(ctx context.Context, g *diagram.Graph, desc *layout.Descriptor, opts Options) (map[string][]byte, bool, error) {
	needsRenderer := false
	for _, format := range opts.Formats {
		if format != FormatJSON {
			needsRenderer = true
			break
		}
	}
	if needsRenderer && r.Renderer == nil {
		return nil, false, fmt.Errorf("no renderer configured")
	}

	var dot []byte
	var artifactHash string
	if needsRenderer {
		dot = r.Renderer.DOT(desc)
		artifactHash = cache.Hash(dot)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	engineHit := true
	engineSeen := false

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := diagram.MarshalGraph(g)
			if err != nil {
				return nil, false, fmt.Errorf("render %s: %w", format, err)
			}
			artifacts[format] = data

		case FormatDOT:
			artifacts[format] = dot

		case FormatSVG, FormatPNG:
			engineSeen = true
			key := r.Keyer.ArtifactKey(artifactHash, cache.ArtifactKeyOpts{Format: format})

			if !opts.Refresh {
				if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
					observability.Cache().OnCacheHit(ctx, "artifact")
					artifacts[format] = data
					continue
				}
				observability.Cache().OnCacheMiss(ctx, "artifact")
			}
			engineHit = false

			var data []byte
			var err error
			if format == FormatSVG {
				data, err = r.Renderer.RenderSVG(ctx, desc)
			} else {
				data, err = r.Renderer.RenderPNG(ctx, desc)
			}
			if err != nil {
				return nil, false, fmt.Errorf("render %s: %w", format, err)
			}
			artifacts[format] = data

			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}

		default:
			return nil, false, fmt.Errorf("unsupported format: %s", format)
		}
	}

	return artifacts, engineSeen && engineHit, nil
}
