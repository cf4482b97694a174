package main

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#7D56F4")
	colorMuted  = lipgloss.Color("#626262")
	colorData   = lipgloss.Color("#E5C07B")
	colorError  = lipgloss.Color("#E06C75")
	colorOK     = lipgloss.Color("#98C379")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(colorAccent).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	markerStyle = lipgloss.NewStyle().Foreground(colorMuted)
	dataStyle   = lipgloss.NewStyle().Foreground(colorData)
	hintStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	statusStyle = lipgloss.NewStyle().Foreground(colorOK)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)
