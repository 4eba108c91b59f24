package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing diagram geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [diagram.json]",
		Short: "Compute node positions and edge routes for a diagram",
		Long: `Compute node positions and edge routes for a diagram.

The layout command takes a diagram.json file, runs the graphviz layout
engine, and writes the diagram back out with every node positioned and
every edge routed. The output is a diagram.layout.json file that can be
rendered to SVG or PNG using the 'render' command.

Pass --preset auto to pick a preset from the diagram's measured structure
instead of naming one. Results are cached locally for faster subsequent
runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
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

// runLayout loads the diagram, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
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

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := diagram.WriteGraphFile(result.Diagram, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete (%s preset)", result.Preset)
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printNewline()
	printNextStep("Render", "neatgraph render "+outputPath)

	return nil
}
