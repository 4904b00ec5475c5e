// Package tui provides the interactive terminal views for modsync: the
// option picker shown before an install and the live install view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run starts a BubbleTea program with the given model.
func Run(model tea.Model) (tea.Model, error) {
	p := tea.NewProgram(model)
	return p.Run()
}

// truncateText shortens text to width runes, ending in "..." when cut.
func truncateText(text string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= width {
		return text
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// formatDescription wraps text to width columns.
func formatDescription(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
