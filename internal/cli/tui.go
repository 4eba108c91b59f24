package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/neatgraph/neatgraph/pkg/layout"
)

// listDimStyle is the muted style for help lines and footers.
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// presetPickerModel - Interactive preset selection
// =============================================================================

// presetPickerModel is the bubbletea model for interactive preset selection.
type presetPickerModel struct {
	names    []string
	cursor   int
	selected string
}

// newPresetPickerModel creates a picker over all built-in presets.
func newPresetPickerModel() presetPickerModel {
	return presetPickerModel{names: layout.PresetNames()}
}

func (m presetPickerModel) Init() tea.Cmd {
	return nil
}

func (m presetPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = m.names[m.cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m presetPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := [][]string{}
	for i, name := range m.names {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		p := layout.Preset(name)
		direction := p.Direction
		if direction == "" {
			direction = "—"
		}
		spacing := strconv.FormatFloat(p.NodeSpacing, 'f', -1, 64)
		rows = append(rows, []string{cursor, name, p.Algorithm, direction, spacing, p.EdgeRouting})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Preset", "Algorithm", "Direction", "Spacing", "Routing").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == m.cursor {
				if col == 1 {
					return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
				}
				return lipgloss.NewStyle().Bold(true)
			}
			if col == 1 {
				return StyleValue
			}
			return listDimStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.names))))

	return b.String()
}
