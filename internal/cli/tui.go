package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/graingraph/graingraph/pkg/checkpoint"
	"github.com/graingraph/graingraph/pkg/errors"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Step inventory
// =============================================================================

// StepRow describes one time step and which datasets hold it.
type StepRow struct {
	Step     int
	Datasets map[string]bool
}

// Complete reports whether both encodings are stored for the step.
func (r StepRow) Complete() bool {
	return r.Datasets[checkpoint.DatasetEdgeIndex] && r.Datasets[checkpoint.DatasetConnections]
}

// collectSteps merges the step listings of every known dataset. Datasets
// that are absent from the archive are skipped.
func collectSteps(ctx context.Context, archive *checkpoint.Archive) ([]StepRow, error) {
	byStep := make(map[int]*StepRow)
	for _, ds := range checkpoint.Datasets {
		steps, err := archive.TimeSteps(ctx, ds)
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, s := range steps {
			row, ok := byStep[s]
			if !ok {
				row = &StepRow{Step: s, Datasets: make(map[string]bool)}
				byStep[s] = row
			}
			row.Datasets[ds] = true
		}
	}
	if len(byStep) == 0 {
		return nil, &errors.NotFoundError{Dataset: checkpoint.Root}
	}
	rows := make([]StepRow, 0, len(byStep))
	for _, r := range byStep {
		rows = append(rows, *r)
	}
	slices.SortFunc(rows, func(a, b StepRow) int { return a.Step - b.Step })
	return rows, nil
}

// stepTableRow renders r as table cells after a leading marker column.
func stepTableRow(marker string, r StepRow) []string {
	cells := []string{marker, fmt.Sprint(r.Step)}
	for _, ds := range checkpoint.Datasets {
		mark := "—"
		if r.Datasets[ds] {
			mark = iconSuccess
		}
		cells = append(cells, mark)
	}
	return cells
}

func stepTableHeaders() []string {
	return append([]string{"", "Step"}, checkpoint.Datasets...)
}

// =============================================================================
// StepListModel - Interactive time step selection
// =============================================================================

// StepListModel is the bubbletea model for interactive step selection.
type StepListModel struct {
	Rows     []StepRow
	Cursor   int
	Selected *StepRow
	Height   int
	Offset   int
}

// NewStepListModel creates a step list positioned on the latest step.
func NewStepListModel(rows []StepRow) StepListModel {
	m := StepListModel{Rows: rows, Height: 15}
	if len(rows) > 0 {
		m.Cursor = len(rows) - 1
		if m.Cursor >= m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m
}

func (m StepListModel) Init() tea.Cmd {
	return nil
}

func (m StepListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Rows) - 1
			m.Offset = max(0, m.Cursor-m.Height+1)
		case "enter":
			if len(m.Rows) == 0 || !m.Rows[m.Cursor].Complete() {
				return m, nil
			}
			row := m.Rows[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m StepListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Time Step"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, stepTableRow(cursor, m.Rows[i]))
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(stepTableHeaders()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			r := m.Rows[idx]
			base := lipgloss.NewStyle()
			switch {
			case idx == m.Cursor && r.Complete():
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Foreground(colorDim).Bold(true)
			case r.Complete():
				return base.Foreground(colorWhite)
			default:
				return base.Foreground(colorDim)
			}
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// pickStep runs the picker over the archive's steps. Leaving without a
// selection is reported as context.Canceled so the caller exits quietly.
func pickStep(ctx context.Context, archive *checkpoint.Archive) (int, error) {
	rows, err := collectSteps(ctx, archive)
	if err != nil {
		return 0, err
	}
	final, err := tea.NewProgram(NewStepListModel(rows), tea.WithContext(ctx)).Run()
	if err != nil {
		return 0, err
	}
	m, ok := final.(StepListModel)
	if !ok || m.Selected == nil {
		return 0, context.Canceled
	}
	return m.Selected.Step, nil
}
