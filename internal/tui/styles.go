package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/proboscis/claude-block-checker/internal/blocks"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // purple
	secondaryColor = lipgloss.Color("#10B981") // green
	mutedColor     = lipgloss.Color("#6B7280") // gray
	dangerColor    = lipgloss.Color("#EF4444") // red
	warnColor      = lipgloss.Color("#F59E0B") // yellow

	// App frame
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	// Profile cards
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	recommendedCardStyle = cardStyle.
				BorderForeground(secondaryColor)

	profileNameStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	barFilledStyle = lipgloss.NewStyle().
			Foreground(primaryColor)

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3A3F47"))

	// Status indicators
	statusOkStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(dangerColor)

	// Help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 0, 0, 0)
)

func bandStyle(b blocks.Band) lipgloss.Style {
	switch b {
	case blocks.BandAmple:
		return statusOkStyle
	case blocks.BandWarning:
		return statusWarnStyle
	case blocks.BandCritical:
		return statusErrorStyle
	default:
		return dimStyle
	}
}
