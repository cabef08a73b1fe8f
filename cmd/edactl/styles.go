package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#2f6690")
	muted  = lipgloss.Color("#7b8794")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	entityStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	categoryStyle = lipgloss.NewStyle().Italic(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#3f9142"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#b83232"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

// table lays rows out in padded columns; widths are measured on the rendered cells
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	line := func(cells []string, style *lipgloss.Style) {
		for i, cell := range cells {
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	line(header, &headerStyle)
	for _, row := range rows {
		line(row, nil)
	}
	return strings.TrimRight(b.String(), "\n")
}
