package ui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the terminal host.
type Styles struct {
	StatusBar lipgloss.Style
	Running   lipgloss.Style
	Paused    lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("71")), // Muted green
		Paused: lipgloss.NewStyle().
			Foreground(lipgloss.Color("179")), // Amber
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("167")),
	}
}
