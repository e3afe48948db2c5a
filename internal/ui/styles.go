package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	quitTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))

	// HeaderStyle and CellStyle render table output for list commands.
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).PaddingRight(2)
	CellStyle    = lipgloss.NewStyle().PaddingRight(2)
	DefaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// RenderTable lays out rows under a styled header, padding columns to the
// widest cell.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	out := ""
	for i, h := range header {
		out += HeaderStyle.Width(widths[i] + 2).Render(h)
	}
	out += "\n"
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				out += CellStyle.Width(widths[i] + 2).Render(cell)
			}
		}
		out += "\n"
	}
	return out
}
