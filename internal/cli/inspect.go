package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/options"
	"github.com/matzehuels/figcomp/pkg/pipeline"
)

var (
	inspectHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	inspectCurrent     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	inspectNormal      = lipgloss.NewStyle().Foreground(colorWhite)
)

// inspectCommand creates the inspect command, a read-only terminal browser
// over a figure's images.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags figureFlags

	cmd := &cobra.Command{
		Use:   "inspect CONFIG",
		Short: "Browse a figure's images, boxes and labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solve(cmd.Context(), args[0], flags, false)
			if err != nil {
				return err
			}
			p := tea.NewProgram(newInspectModel(args[0], res), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// inspectModel is the bubbletea model for the inspect browser.
type inspectModel struct {
	title  string
	leaves []*layout.Node
	rows   [][]string
	cursor int
	offset int
	height int
}

func newInspectModel(config string, res *pipeline.Result) inspectModel {
	m := inspectModel{
		title:  fmt.Sprintf("%s  %dx%d px", config, res.Width, res.Height),
		leaves: res.Figure.Leaves,
		height: 15,
	}
	for _, leaf := range m.leaves {
		m.rows = append(m.rows, leafRow(leaf))
	}
	return m
}

func leafRow(leaf *layout.Node) []string {
	px := leaf.Box.Pixels()
	label := leaf.Label
	if leaf.Options.Text != nil {
		label += " (text)"
	}
	if label == "" {
		label = "-"
	}
	return []string{
		fmt.Sprint(leaf.LabelIndex),
		leaf.Where,
		leaf.Source,
		fmt.Sprintf("%dx%d", leaf.Asset.Width, leaf.Asset.Height),
		fmt.Sprintf("%dx%d+%d+%d", px.Dx(), px.Dy(), px.Min.X, px.Min.Y),
		label,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.cursor < len(m.leaves)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(0, len(m.leaves)-1)
		}
	case tea.WindowSizeMsg:
		// Title, help, detail pane and table borders.
		m.height = max(5, msg.Height-12)
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Where", "Image", "Natural", "Box", "Label").
		Rows(m.rows[m.offset:end]...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return inspectHeaderStyle
			}
			if m.offset+row == m.cursor {
				return inspectCurrent
			}
			if col == 0 || col == 1 {
				return StyleDim
			}
			return inspectNormal
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	if len(m.leaves) > 0 {
		b.WriteString(m.detail(m.leaves[m.cursor]))
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.leaves))))
	return b.String()
}

// detail describes the selected leaf's resolved label options.
func (m inspectModel) detail(leaf *layout.Node) string {
	o := leaf.Options
	text := o.FormatStr
	if o.Text != nil {
		text = fmt.Sprintf("text %q", *o.Text)
	}
	return StyleDim.Render(fmt.Sprintf("  %s  pos %g,%g  size %g  color %s",
		text, o.Pos.X, o.Pos.Y, o.Size, options.FormatColor(o.Color))) + "\n"
}
