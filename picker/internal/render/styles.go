// Package render formats a pick for the terminal.
package render

import "github.com/charmbracelet/lipgloss"

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(11)
	LocatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// Confidence of the primary locator.
	ConfirmedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	UnconfirmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	LightOnlyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	TreeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	TargetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
)
