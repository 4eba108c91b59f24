package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
)

// renderCommand creates the render command for producing visual artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		refresh    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [diagram.json]",
		Short: "Lay out a diagram and render it to SVG, PNG, DOT or JSON",
		Long: `Lay out a diagram and render it to visual artifacts.

The render command runs the full pipeline: it computes the layout and then
renders the positioned diagram to the requested formats. The svg and png
formats run graphviz; dot writes the engine input and json the laid-out
diagram itself.

Both the layout and the engine-rendered artifacts are cached locally, so
re-rendering an unchanged diagram is cheap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			opts.Refresh = refresh
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when the result is cached")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Preset, "preset", "p", "", "layout preset, or 'auto' to pick from structure")
	cmd.Flags().StringVar(&opts.Algorithm, "algorithm", "", "layout algorithm: layered, force, stress, radial, circular")
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "layered direction: down, up, left, right")
	cmd.Flags().Float64Var(&opts.NodeSpacing, "node-spacing", 0, "minimum spacing between nodes in a layer")
	cmd.Flags().Float64Var(&opts.LayerSpacing, "layer-spacing", 0, "spacing between layers")
	cmd.Flags().StringVar(&opts.EdgeRouting, "edge-routing", "", "edge routing: orthogonal, polyline, curved, straight")

	return cmd
}

// runRender loads the diagram, runs the pipeline, and writes artifacts.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	g, err := diagram.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	return writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		cacheHit:  result.CacheInfo.LayoutHit,
		nodes:     result.Stats.NodeCount,
		edges:     result.Stats.EdgeCount,
	})
}

// =============================================================================
// Artifact Output
// =============================================================================

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
	cacheHit  bool
	nodes     int
	edges     int
}

// writeArtifacts writes rendered artifacts to disk. A single format goes to
// the -o path, or <input>.<format> when none was given. Multiple formats
// share a base path and produce one file per format.
func writeArtifacts(p artifactWriteParams) error {
	var paths []string
	if len(p.formats) == 1 {
		format := p.formats[0]
		path := p.output
		if path == "" {
			path = basePath("", p.input) + "." + format
		}
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	} else {
		base := basePath(p.output, p.input)
		for _, format := range p.formats {
			data, ok := p.artifacts[format]
			if !ok {
				printWarning("No %s artifact produced", format)
				continue
			}
			path := base + "." + format
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}

	printSuccess("Render complete")
	for _, path := range paths {
		printFile(path)
	}
	printStats(p.nodes, p.edges, p.cacheHit)
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output carries a
// format extension (.svg, .png, etc.), that extension is stripped so every
// format gets its own suffix.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
