package stampctl

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#F59E0B") // Amber
	mutedColor  = lipgloss.Color("#6B7280") // Gray
	goodColor   = lipgloss.Color("#10B981") // Green
	badColor    = lipgloss.Color("#EF4444") // Red
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	filledSlotStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Width(4).
			Align(lipgloss.Center)

	emptySlotStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Foreground(mutedColor).
			Width(4).
			Align(lipgloss.Center)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

// kindStyle colours a history record kind.
func kindStyle(kind string) lipgloss.Style {
	switch kind {
	case "stamp":
		return lipgloss.NewStyle().Foreground(goodColor)
	case "penalty":
		return lipgloss.NewStyle().Foreground(badColor)
	default:
		return mutedStyle
	}
}
