// internal/ui/app.go
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"arena/internal/attach"
	"arena/internal/client"
	"arena/internal/commands"
	"arena/internal/export"
	"arena/internal/models"
	"arena/internal/session"
)

const (
	headerHeight   = 1
	modelRowHeight = 1
	inputHeight    = 5 // textarea plus border
	footerHeight   = 1
)

type focusArea int

const (
	focusPrompt focusArea = iota
	focusModels
	focusColumns
)

// Checker reports which of the wanted models are installed
type Checker interface {
	Status(ctx context.Context, wanted []string) (map[string]bool, error)
}

// Options configures the TUI
type Options struct {
	Controller   *session.Controller
	Checker      Checker
	Models       []string // offered in the model row, in order
	ShowThinking bool
	ExportDir    string
	Copy         func(string) error // defaults to the system clipboard
	Logger       *slog.Logger
}

type statusMsg struct {
	status map[string]bool
	err    error
}

type Model struct {
	width, height int
	ready         bool

	input   textarea.Model
	spinner spinner.Model

	controller *session.Controller
	checker    Checker
	copy       func(string) error
	render     func(string, int) string
	exportDir  string
	logger     *slog.Logger

	// Model row
	offered    []string
	available  map[string]bool
	checked    bool // availability is known
	selected   map[string]bool
	cursor     int
	showModels bool

	attached []attach.File // sent with the next prompt

	current  *session.Session
	columns  []*column
	focus    focusArea
	focusCol int

	generating   bool
	showThinking bool
	showHelp     bool

	notice    string
	noticeErr bool
}

func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask every selected model... (/help for commands)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight - 2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusWarn

	m := Model{
		input:        ta,
		spinner:      sp,
		controller:   opts.Controller,
		checker:      opts.Checker,
		copy:         opts.Copy,
		render:       RenderMarkdown,
		exportDir:    opts.ExportDir,
		logger:       opts.Logger,
		offered:      slices.Clone(opts.Models),
		available:    make(map[string]bool),
		selected:     make(map[string]bool),
		showModels:   true,
		showThinking: opts.ShowThinking,
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	if m.exportDir == "" {
		m.exportDir = "."
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.checkModels())
}

func (m Model) checkModels() tea.Cmd {
	checker, wanted := m.checker, slices.Clone(m.offered)
	if checker == nil {
		return nil
	}
	return func() tea.Msg {
		status, err := checker.Status(context.Background(), wanted)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if c := m.focused(); c != nil && m.focus == focusColumns {
			var cmd tea.Cmd
			c.vp, cmd = c.vp.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.applyStatus(msg)
		return m, nil

	case tokenMsg:
		if c := m.column(msg.session, msg.model); c != nil {
			c.seg = msg.seg
			if c.status == session.ModelPending {
				c.status = session.ModelStreaming
			}
			c.refresh(m.showThinking, m.render)
		}
		return m, nil

	case modelErrorMsg:
		if c := m.column(msg.session, msg.model); c != nil {
			c.setError(msg.message)
			c.refresh(m.showThinking, m.render)
		}
		return m, nil

	case modelDoneMsg:
		if c := m.column(msg.session, msg.model); c != nil {
			c.status = session.ModelDone
		}
		return m, nil

	case sessionEndMsg:
		if !m.isCurrent(msg.session) {
			return m, nil
		}
		m.generating = false
		m.finish(msg.reason)
		return m, nil
	}

	if m.focus == focusPrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.controller != nil {
			m.controller.Cancel()
		}
		return m, tea.Quit
	case "f1":
		m.showHelp = !m.showHelp
		return m, nil
	case "esc":
		switch {
		case m.showHelp:
			m.showHelp = false
		case m.generating:
			m.stop()
		default:
			m.setFocus(focusPrompt)
		}
		return m, nil
	case "ctrl+t":
		m.toggleThinking()
		return m, nil
	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil
	}

	if m.showHelp {
		return m, nil
	}

	switch m.focus {
	case focusModels:
		switch msg.String() {
		case "left", "h":
			m.cursor = max(m.cursor-1, 0)
		case "right", "l":
			m.cursor = min(m.cursor+1, max(len(m.offered)-1, 0))
		case " ":
			m.toggleModel(m.cursor)
		case "enter":
			return m.submit()
		}
		return m, nil

	case focusColumns:
		switch msg.String() {
		case "left", "h":
			m.focusCol = max(m.focusCol-1, 0)
		case "right", "l":
			m.focusCol = min(m.focusCol+1, max(len(m.columns)-1, 0))
		case "c":
			m.copyTarget(commands.CopyResponse)
		case "C":
			m.copyTarget(commands.CopyThinking)
		default:
			if c := m.focused(); c != nil {
				var cmd tea.Cmd
				c.vp, cmd = c.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	}

	if msg.String() == "enter" {
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs a slash command or sends the prompt to the selected models
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if cmd := commands.Parse(text); cmd != nil {
		m.input.Reset()
		return m.runCommand(cmd)
	}
	if m.controller == nil {
		m.notify("No backend configured", true)
		return m, nil
	}

	selection := m.selection()
	prompt := attach.Prompt(text, m.attached)
	s, err := m.controller.Start(context.Background(), session.Request{Prompt: prompt, Models: selection})
	if err != nil {
		if errors.Is(err, session.ErrNoModels) {
			m.notify("No models selected. Pick at least one with Space or /select", true)
		} else {
			m.notify(err.Error(), true)
		}
		return m, nil
	}
	m.logger.Debug("ui: session started", "session", s.ID(), "models", len(selection))

	m.input.Reset()
	m.attached = nil
	m.current = s
	m.columns = make([]*column, 0, len(selection))
	for _, name := range selection {
		m.columns = append(m.columns, newColumn(name, m.colorFor(name)))
	}
	m.focusCol = 0
	m.notify("", false)
	m.layout()

	wasIdle := !m.generating
	m.generating = true
	if wasIdle {
		return m, m.spinner.Tick
	}
	return m, nil
}

func (m Model) runCommand(cmd commands.Command) (tea.Model, tea.Cmd) {
	switch c := cmd.(type) {
	case commands.Help:
		m.showHelp = true
	case commands.ToggleModels:
		m.showModels = !m.showModels
		if !m.showModels && m.focus == focusModels {
			m.setFocus(focusPrompt)
		}
		m.layout()
	case commands.ToggleThinking:
		m.toggleThinking()
	case commands.Stop:
		if !m.generating {
			m.notify("Nothing is running", false)
			break
		}
		m.stop()
	case commands.Copy:
		m.copyTarget(c.Target)
	case commands.Clear:
		m.clear()
	case commands.Select:
		m.selectModels(c.Models)
	case commands.Export:
		m.exportSession()
	case commands.Refresh:
		m.notify("Checking installed models...", false)
		return m, m.checkModels()
	case commands.Attach:
		m.attachFiles(c.Paths)
	case commands.ParseError:
		m.notify(c.Message, true)
	}
	return m, nil
}

func (m *Model) attachFiles(paths []string) {
	if len(paths) == 0 {
		m.attached = nil
		m.notify("Attachments cleared", false)
		return
	}
	files, err := attach.LoadAll(paths)
	if err != nil {
		m.notify("Attach failed: "+err.Error(), true)
		return
	}
	m.attached = append(m.attached, files...)
	m.notify(fmt.Sprintf("%d file(s) attached to the next prompt", len(m.attached)), false)
}

func (m *Model) stop() {
	if m.controller != nil {
		m.controller.Cancel()
	}
	m.notify("Stopping...", false)
}

// finish syncs the columns with the final session state
func (m *Model) finish(reason session.EndReason) {
	snap := m.current.Snapshot()
	for _, r := range snap.Models {
		if c := m.find(r.Model); c != nil {
			c.status = r.Status
		}
	}

	switch reason.State {
	case session.StateCompleted:
		m.notify("Done", false)
	case session.StateCancelled:
		m.notify(session.StoppedMessage, false)
	case session.StateFailed:
		m.logger.Warn("ui: session failed", "session", snap.ID, "error", reason.Err)
		msg := "connection error: is the arena server running?"
		if reason.Err != nil {
			msg = "connection error: " + reason.Err.Error()
		}
		for _, c := range m.columns {
			if c.empty() {
				c.setError(msg)
				c.refresh(m.showThinking, m.render)
			}
		}
		m.notify("Failed to reach the backend server. Make sure it is running.", true)
	}
}

func (m *Model) clear() {
	if m.current != nil {
		m.current.Cancel()
	}
	m.current = nil
	m.columns = nil
	m.generating = false
	if m.focus == focusColumns {
		m.setFocus(focusPrompt)
	}
	m.notify("Cleared", false)
}

func (m *Model) toggleThinking() {
	m.showThinking = !m.showThinking
	for _, c := range m.columns {
		c.refresh(m.showThinking, m.render)
	}
	if m.showThinking {
		m.notify("Thinking shown", false)
	} else {
		m.notify("Thinking hidden", false)
	}
}

func (m *Model) toggleModel(i int) {
	if i < 0 || i >= len(m.offered) {
		return
	}
	name := m.offered[i]
	if m.selected[name] {
		delete(m.selected, name)
		return
	}
	if m.checked && !m.available[name] {
		m.notify(name+" is not installed. Run: ollama pull "+name, true)
		return
	}
	m.selected[name] = true
}

func (m *Model) selectModels(names []string) {
	m.selected = make(map[string]bool, len(names))
	for _, name := range names {
		if !slices.Contains(m.offered, name) {
			m.offered = append(m.offered, name)
		}
		m.selected[name] = true
	}
	m.notify("Selected: "+strings.Join(m.selection(), ", "), false)
}

// selection returns the selected models in model row order
func (m Model) selection() []string {
	var out []string
	for _, name := range m.offered {
		if m.selected[name] {
			out = append(out, name)
		}
	}
	return out
}

func (m *Model) applyStatus(msg statusMsg) {
	if msg.err != nil {
		m.checked = false
		m.logger.Warn("ui: model check failed", "error", msg.err)
		m.notify("Backend unreachable: "+msg.err.Error(), true)
		return
	}

	m.available = msg.status
	m.checked = true
	if len(m.selected) == 0 {
		for _, name := range client.DefaultSelection(m.offered, msg.status) {
			m.selected[name] = true
		}
	}

	installed := 0
	for _, name := range m.offered {
		if msg.status[name] {
			installed++
		}
	}
	m.notify(fmt.Sprintf("%d of %d models installed", installed, len(m.offered)), false)
}

func (m *Model) copyTarget(target commands.CopyTarget) {
	var text, what string
	switch target {
	case commands.CopyAll:
		if m.current == nil {
			break
		}
		text = export.Session(m.current.Snapshot(), export.Options{Thinking: m.showThinking})
		what = "session"
	default:
		c := m.focused()
		if c == nil {
			break
		}
		if target == commands.CopyThinking {
			text, what = c.seg.Thinking, c.model+" thinking"
		} else {
			text, what = c.seg.Response, c.model+" response"
		}
	}

	if text == "" {
		m.notify("Nothing to copy", true)
		return
	}
	if err := m.copy(text); err != nil {
		m.notify("Copy failed: "+err.Error(), true)
		return
	}
	m.notify("Copied "+what, false)
}

func (m *Model) exportSession() {
	if m.current == nil {
		m.notify("Nothing to export", true)
		return
	}
	path, err := export.Write(m.current.Snapshot(), export.Options{Thinking: m.showThinking}, m.exportDir)
	if err != nil {
		m.notify("Export failed: "+err.Error(), true)
		return
	}
	m.notify("Exported to "+path, false)
}

func (m *Model) notify(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) isCurrent(id string) bool {
	return m.current != nil && m.current.ID() == id
}

// column returns the column for model in the shown session. Models the
// backend reports without being asked for get a column of their own.
func (m *Model) column(id, model string) *column {
	if !m.isCurrent(id) {
		return nil
	}
	if c := m.find(model); c != nil {
		return c
	}
	c := newColumn(model, m.colorFor(model))
	m.columns = append(m.columns, c)
	m.layout()
	return c
}

func (m Model) find(model string) *column {
	for _, c := range m.columns {
		if c.model == model {
			return c
		}
	}
	return nil
}

func (m Model) focused() *column {
	if len(m.columns) == 0 {
		return nil
	}
	return m.columns[min(m.focusCol, len(m.columns)-1)]
}

func (m Model) colorFor(model string) string {
	if i := slices.Index(m.offered, model); i >= 0 {
		return models.ColorFor(i)
	}
	return models.ColorFor(len(m.offered))
}

func (m *Model) setFocus(f focusArea) {
	m.focus = f
	if f == focusPrompt {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) cycleFocus(dir int) {
	areas := []focusArea{focusPrompt}
	if m.showModels && len(m.offered) > 0 {
		areas = append(areas, focusModels)
	}
	if len(m.columns) > 0 {
		areas = append(areas, focusColumns)
	}
	i := slices.Index(areas, m.focus)
	i = (i + dir + len(areas)) % len(areas)
	m.setFocus(areas[i])
}

func (m Model) columnsHeight() int {
	h := m.height - headerHeight - inputHeight - footerHeight
	if m.showModels {
		h -= modelRowHeight
	}
	return max(h, 4)
}

// columnWidths splits the terminal width across the columns
func (m Model) columnWidths() []int {
	n := len(m.columns)
	if n == 0 {
		return nil
	}
	widths := make([]int, n)
	w := m.width / n
	for i := range widths {
		widths[i] = w
	}
	widths[n-1] = m.width - w*(n-1)
	return widths
}

func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.input.SetWidth(max(m.width-2, 10))

	h := m.columnsHeight()
	for i, w := range m.columnWidths() {
		c := m.columns[i]
		// border on both sides, border plus header line vertically
		c.resize(w-2, h-3)
		c.refresh(m.showThinking, m.render)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	sections := []string{m.renderHeader()}
	if m.showModels {
		sections = append(sections, m.renderModelRow())
	}
	sections = append(sections, m.renderColumns(), m.renderInput(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	header := TitleStyle.Render("ARENA")
	if m.generating {
		header += " " + m.spinner.View() + " Generating..."
	}
	thinking := "thinking hidden"
	if m.showThinking {
		thinking = "thinking shown"
	}
	status := fmt.Sprintf("%d selected | %s", len(m.selection()), thinking)
	if len(m.attached) > 0 {
		status = fmt.Sprintf("%d attached | %s", len(m.attached), status)
	}
	right := DimStyle.Render(status)
	gap := max(m.width-lipgloss.Width(header)-lipgloss.Width(right), 1)
	return header + strings.Repeat(" ", gap) + right
}

func (m Model) renderModelRow() string {
	parts := make([]string, 0, len(m.offered))
	for i, name := range m.offered {
		box := "[ ]"
		style := InactiveTabStyle
		if m.selected[name] {
			box = "[x]"
			style = ModelStyle(models.ColorFor(i))
		}
		if m.focus == focusModels && i == m.cursor {
			style = style.Inherit(CursorTabStyle)
		}
		parts = append(parts, availabilityIndicator(m.available[name], m.checked)+" "+style.Render(box+" "+name))
	}
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(strings.Join(parts, "  "))
}

func (m Model) renderColumns() string {
	h := m.columnsHeight()
	if len(m.columns) == 0 {
		text := "Type a prompt and press Enter"
		if len(m.selection()) == 0 {
			text = "No models selected\nPlease select at least one model to continue."
		}
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, DimStyle.Render(text))
	}

	views := make([]string, len(m.columns))
	for i, w := range m.columnWidths() {
		focused := m.focus == focusColumns && i == m.focusCol
		views[i] = m.columns[i].view(w, h, focused)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

func (m Model) renderInput() string {
	box := InactiveBox
	if m.focus == focusPrompt {
		box = ActiveBox
	}
	return box.Width(max(m.width-2, 1)).Render(m.input.View())
}

func (m Model) renderFooter() string {
	if m.notice != "" {
		style := NoticeStyle
		if m.noticeErr {
			style = ErrorStyle
		}
		return style.MaxWidth(max(m.width, 1)).Render(m.notice)
	}
	return DimStyle.MaxWidth(max(m.width, 1)).Render("Enter send | Esc stop | Tab focus | Ctrl+T thinking | F1 help | Ctrl+C quit")
}
