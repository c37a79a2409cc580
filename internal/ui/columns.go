// internal/ui/columns.go
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"arena/internal/session"
	"arena/internal/thinking"
)

const waitingText = "Waiting for response..."

// warmupHint is appended to errors from models that are still loading
const warmupHint = "Try warming up the model first by running: ollama run %s \"test\""

// column shows one model's output for the current session
type column struct {
	model  string
	color  string
	status session.ModelStatus
	seg    thinking.Segmentation
	errMsg string

	vp viewport.Model
}

func newColumn(model, color string) *column {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return &column{model: model, color: color, vp: vp}
}

// empty reports whether the model has shown anything yet
func (c *column) empty() bool {
	return c.errMsg == "" && c.seg.Thinking == "" && c.seg.Response == ""
}

// setError records a model error. The stop marker is not an error.
func (c *column) setError(message string) {
	c.errMsg = message
	if message == session.StoppedMessage {
		c.status = session.ModelStopped
		return
	}
	c.status = session.ModelErrored
}

// refresh re-renders the column body, following the output if the view was
// already at the bottom.
func (c *column) refresh(showThinking bool, render func(string, int) string) {
	follow := c.vp.AtBottom()
	c.vp.SetContent(c.body(c.vp.Width, showThinking, render))
	if follow {
		c.vp.GotoBottom()
	}
}

func (c *column) body(width int, showThinking bool, render func(string, int) string) string {
	if width <= 0 {
		width = 1
	}
	if c.errMsg != "" {
		return ErrorStyle.Render(wordwrap.String(errorText(c.model, c.errMsg), width))
	}
	if c.seg.Thinking == "" && c.seg.Response == "" {
		return DimStyle.Render(waitingText)
	}

	var sb strings.Builder
	if showThinking && c.seg.HasThinking() {
		sb.WriteString(ThinkingLabel.Render("Thinking"))
		sb.WriteString("\n")
		sb.WriteString(ThinkingStyle.Render(wordwrap.String(c.seg.Thinking, width)))
		sb.WriteString("\n\n")
	}
	switch {
	case c.seg.Response != "":
		sb.WriteString(render(c.seg.Response, width))
	case !showThinking:
		sb.WriteString(DimStyle.Render("Thinking..."))
	}
	return sb.String()
}

// errorText formats an error the way a column shows it
func errorText(model, message string) string {
	if message == session.StoppedMessage {
		return message
	}
	text := "[ERROR]: " + message
	if strings.Contains(message, "loading into memory") {
		text += "\n\n" + fmt.Sprintf(warmupHint, model)
	}
	return text
}

func (c *column) resize(width, height int) {
	c.vp.Width = max(width, 1)
	c.vp.Height = max(height, 1)
}

// view renders the column in a box of the given outer size
func (c *column) view(width, height int, focused bool) string {
	box := InactiveBox
	if focused {
		box = ActiveBox.BorderForeground(lipgloss.Color(c.colorOr(string(Cyan))))
	}

	header := statusIndicator(c.status) + " " + ModelStyle(c.color).Render(c.model)
	header = lipgloss.NewStyle().MaxWidth(max(width-2, 1)).Render(header)

	return box.
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		Render(header + "\n" + c.vp.View())
}

func (c *column) colorOr(fallback string) string {
	if c.color == "" {
		return fallback
	}
	return c.color
}
