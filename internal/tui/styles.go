package tui

import "github.com/charmbracelet/lipgloss"

var (
	focusedColor = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D56F4"}
	blurredColor = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#4D4D4D"}

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blurredColor)

	focusedPaneStyle = paneStyle.BorderForeground(focusedColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Padding(0, 1)

	errorStatusStyle = statusStyle.
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(lipgloss.Color("#FF5F87"))
)
