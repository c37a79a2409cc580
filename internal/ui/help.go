// internal/ui/help.go
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Yellow).
				MarginTop(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	helpCmdStyle = lipgloss.NewStyle().
			Foreground(Magenta)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(White)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(Dim)
)

// HelpContent returns the formatted help overlay content
func HelpContent(width, height int) string {
	var content strings.Builder

	content.WriteString(helpTitleStyle.Render("ARENA HELP"))
	content.WriteString("\n\n")

	content.WriteString(helpSectionStyle.Render("KEYBINDINGS"))
	content.WriteString("\n\n")

	keybindings := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send the prompt to every selected model"},
		{"Alt+Enter", "Insert a newline in the prompt"},
		{"Esc", "Stop generation / close help / return to prompt"},
		{"Ctrl+T", "Show or hide thinking"},
		{"Tab", "Cycle focus (Prompt -> Models -> Columns)"},
		{"Shift+Tab", "Cycle focus backward"},
		{"Left / Right", "Move between models or columns"},
		{"Space", "Toggle the model under the cursor"},
		{"c", "Copy the focused response"},
		{"C", "Copy the focused thinking"},
		{"Up / Down", "Scroll the focused column"},
		{"F1", "Toggle this help overlay"},
		{"Ctrl+C", "Quit"},
	}

	for _, kb := range keybindings {
		key := helpKeyStyle.Width(14).Render(kb.key)
		desc := helpDescStyle.Render(kb.desc)
		content.WriteString("  " + key + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("SLASH COMMANDS"))
	content.WriteString("\n\n")

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help", "Show this help overlay"},
		{"/models", "Show or hide the model row"},
		{"/thinking", "Show or hide thinking"},
		{"/stop", "Stop the running generation"},
		{"/copy [what]", "Copy response, thinking, or all"},
		{"/clear", "Clear every column"},
		{"/select a,b", "Select exactly these models"},
		{"/export", "Save the session as markdown"},
		{"/refresh", "Re-check which models are installed"},
		{"/attach [path]", "Attach a file to the next prompt"},
	}

	for _, cmd := range commands {
		cmdStr := helpCmdStyle.Width(16).Render(cmd.cmd)
		desc := helpDescStyle.Render(cmd.desc)
		content.WriteString("  " + cmdStr + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpSectionStyle.Render("MODEL STATUS INDICATORS"))
	content.WriteString("\n\n")

	indicators := []struct {
		symbol string
		style  lipgloss.Style
		desc   string
	}{
		{"○", DimStyle, "Waiting - no output yet"},
		{"●", StatusWarn, "Streaming - the model is generating"},
		{"●", StatusOK, "Done - the model finished"},
		{"◌", DimStyle, "Stopped - generation was stopped before any output"},
		{"✗", StatusCrit, "Error - the model reported an error"},
	}

	for _, ind := range indicators {
		symbol := ind.style.Width(3).Render(ind.symbol)
		desc := helpDescStyle.Render(ind.desc)
		content.WriteString("  " + symbol + "  " + desc + "\n")
	}

	content.WriteString("\n")
	content.WriteString(helpDimStyle.Render("  In the model row a red dot means the model is not installed."))
	content.WriteString("\n\n")

	footer := helpDimStyle.Render("Press F1 or Esc to close this help")
	content.WriteString(lipgloss.PlaceHorizontal(max(width-8, 0), lipgloss.Center, footer))

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
		MaxWidth(max(width-10, 0)).
		MaxHeight(max(height-4, 0))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlayStyle.Render(content.String()),
	)
}

func (m Model) renderHelp() string {
	return HelpContent(m.width, m.height)
}
