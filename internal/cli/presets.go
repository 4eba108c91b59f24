package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
)

// presetsCommand creates the presets command for listing layout presets.
func (c *CLI) presetsCommand() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in layout presets",
		Long: `List the built-in layout presets and their settings.

Each preset bundles a graphviz algorithm with spacing and routing choices.
Pass a preset to 'layout' or 'render' with --preset, or use --preset auto
to let the diagram's measured structure pick one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pick {
				return c.runPresetPicker()
			}
			printPresetTable()
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "pick a preset interactively")

	return cmd
}

// printPresetTable prints all presets as a bordered table.
func printPresetTable() {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	defaultStyle := lipgloss.NewStyle().Foreground(colorCyan)

	rows := [][]string{}
	for _, name := range layout.PresetNames() {
		rows = append(rows, presetRow(name))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Preset", "Algorithm", "Direction", "Spacing", "Routing").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 && rows[row][0] == pipeline.DefaultPreset {
				return defaultStyle
			}
			if col == 0 {
				return StyleValue
			}
			return StyleDim
		})

	fmt.Println(t.Render())
	printDetail("%s is the default; 'auto' picks from diagram structure", pipeline.DefaultPreset)
	printNewline()
	printNextStep("Use a preset", "neatgraph layout --preset hierarchy diagram.json")
}

// presetRow formats one preset as a table row.
func presetRow(name string) []string {
	p := layout.Preset(name)
	direction := p.Direction
	if direction == "" {
		direction = "—"
	}
	spacing := strconv.FormatFloat(p.NodeSpacing, 'f', -1, 64)
	return []string{name, p.Algorithm, direction, spacing, p.EdgeRouting}
}

// runPresetPicker runs the interactive preset picker and prints the choice.
func (c *CLI) runPresetPicker() error {
	final, err := tea.NewProgram(newPresetPickerModel()).Run()
	if err != nil {
		return fmt.Errorf("preset picker: %w", err)
	}

	m, ok := final.(presetPickerModel)
	if !ok || m.selected == "" {
		return nil
	}

	printSuccess("Selected %s", StyleHighlight.Render(m.selected))
	printNewline()
	printNextStep("Layout", "neatgraph layout --preset "+m.selected+" diagram.json")
	return nil
}
