package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	plainStyle  = lipgloss.NewStyle()
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
)

// cell pads s to width before styling so columns stay aligned.
func cell(style lipgloss.Style, s string, width int) string {
	return style.Render(lipgloss.NewStyle().Width(width).Render(truncate(s, width-1)))
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
