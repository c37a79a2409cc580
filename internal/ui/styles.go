// internal/ui/styles.go
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"arena/internal/session"
)

var (
	// Colors
	Cyan    = lipgloss.Color("#00FFFF")
	Green   = lipgloss.Color("#00FF00")
	Yellow  = lipgloss.Color("#FFD700")
	Orange  = lipgloss.Color("#FFA500")
	Red     = lipgloss.Color("#FF6B6B")
	Magenta = lipgloss.Color("#FF00FF")
	SkyBlue = lipgloss.Color("#87CEEB")
	Dim     = lipgloss.Color("#555555")
	White   = lipgloss.Color("#FFFFFF")

	// Box styles
	ActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Cyan)

	InactiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim)

	// Text styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(Yellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	ThinkingStyle = lipgloss.NewStyle().
			Foreground(Dim).
			Italic(true)

	ThinkingLabel = lipgloss.NewStyle().
			Foreground(SkyBlue).
			Bold(true)

	// Status indicators
	StatusOK   = lipgloss.NewStyle().Foreground(Green).Bold(true)
	StatusWarn = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	StatusCrit = lipgloss.NewStyle().Foreground(Red).Bold(true)

	// Toggle row styles
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(Dim)

	CursorTabStyle = lipgloss.NewStyle().
			Underline(true)
)

// ModelStyle returns the header style for a model color
func ModelStyle(color string) lipgloss.Style {
	if color == "" {
		return lipgloss.NewStyle().Foreground(White).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

func statusIndicator(status session.ModelStatus) string {
	switch status {
	case session.ModelStreaming:
		return StatusWarn.Render("●")
	case session.ModelDone:
		return StatusOK.Render("●")
	case session.ModelErrored:
		return StatusCrit.Render("✗")
	case session.ModelStopped:
		return DimStyle.Render("◌")
	default: // pending
		return DimStyle.Render("○")
	}
}

// availabilityIndicator marks a model in the toggle row
func availabilityIndicator(available, known bool) string {
	switch {
	case !known:
		return DimStyle.Render("?")
	case available:
		return StatusOK.Render("●")
	default:
		return StatusCrit.Render("●")
	}
}
