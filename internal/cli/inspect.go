package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
)

// inspectCommand creates the inspect command for reporting diagram structure.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [diagram.json]",
		Short: "Report diagram structure and the preset auto selection picks",
		Long: `Report the structural traits of a diagram.

The inspect command measures node and edge counts, edge density, maximum
degree, connected components, and whether the diagram contains a cycle.
It also reports which preset '--preset auto' would pick for this diagram.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print traits as JSON")

	return cmd
}

// runInspect measures the diagram and prints its traits.
func (c *CLI) runInspect(input string, asJSON bool) error {
	g, err := diagram.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load diagram %s: %w", input, err)
	}

	traits := layout.Measure(g)
	preset := layout.DefaultDensityPolicy().SelectPreset(traits)

	if asJSON {
		out := struct {
			layout.Traits
			Preset string `json:"preset"`
		}{traits, preset}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal traits: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printKeyValue("Nodes", strconv.Itoa(traits.Nodes))
	printKeyValue("Edges", strconv.Itoa(traits.Edges))
	printKeyValue("Density", fmt.Sprintf("%.2f", traits.Density))
	printKeyValue("Max degree", strconv.Itoa(traits.MaxDegree))
	printKeyValue("Components", strconv.Itoa(traits.Components))
	printKeyValue("Cyclic", strconv.FormatBool(traits.Cyclic))
	printNewline()
	printInfo("auto selection picks %s", StyleHighlight.Render(preset))
	printNextStep("Layout", "neatgraph layout --preset auto "+input)

	return nil
}
