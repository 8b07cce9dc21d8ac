package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/psaab/nocterm/pkg/output"
)

var (
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	systemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	textStyle    = lipgloss.NewStyle()

	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	searchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

func styleFor(s output.Style) lipgloss.Style {
	switch s {
	case output.StyleCommand:
		return commandStyle
	case output.StyleSystem:
		return systemStyle
	case output.StyleError:
		return errorStyle
	case output.StyleSuccess:
		return successStyle
	case output.StyleAccent:
		return accentStyle
	}
	return textStyle
}

// Render styles one output line for the terminal.
func Render(l output.Line) string {
	return styleFor(l.Style).Render(l.Text)
}
