package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#a78bfa")
	colorMuted  = lipgloss.Color("#7f849c")
	colorError  = lipgloss.Color("#f38ba8")
	colorOK     = lipgloss.Color("#a6e3a1")
	colorSoft   = lipgloss.Color("#cdd6f4")

	titleStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(colorSoft).Bold(true)
	focusStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	okStyle       = lipgloss.NewStyle().Foreground(colorOK)
	suggestStyle  = lipgloss.NewStyle().Foreground(colorSoft).Italic(true)
	frameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
	progressStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
