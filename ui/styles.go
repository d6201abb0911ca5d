package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffcc00")).
			Padding(0, 1)

	userBubble = lipgloss.NewStyle().
			Background(lipgloss.Color("#ffcc00")).
			Foreground(lipgloss.Color("#526bb5")).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	botBubble = lipgloss.NewStyle().
			Background(lipgloss.Color("#ffffff")).
			Foreground(lipgloss.Color("#967bb6")).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	botFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#967bb6")).
			MarginBottom(1)

	errorBubble = lipgloss.NewStyle().
			Background(lipgloss.Color("#ffffff")).
			Foreground(lipgloss.Color("#c0392b")).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#526bb5")).Background(lipgloss.Color("#ffcc00")).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("#967bb6")).Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)
