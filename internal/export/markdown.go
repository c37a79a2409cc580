// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"arena/internal/session"
)

// Options controls what an export includes
type Options struct {
	Thinking bool      // include thinking blocks
	Now      time.Time // export time; zero means time.Now
}

// Session renders a session snapshot as markdown
func Session(snap session.Snapshot, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var sb strings.Builder

	// Title header
	sb.WriteString("# ")
	sb.WriteString(title(snap.Prompt))
	sb.WriteString("\n\n")

	// Metadata section
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "**Session ID:** `%s`\n\n", snap.ID)
	fmt.Fprintf(&sb, "**Exported:** %s\n\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**State:** %s\n\n", snap.State)
	if len(snap.Models) > 0 {
		names := make([]string, len(snap.Models))
		for i, m := range snap.Models {
			names[i] = m.Model
		}
		sb.WriteString("**Models:** ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n\n")
	}
	sb.WriteString("---\n\n")

	sb.WriteString("## Prompt\n\n")
	writeQuoted(&sb, snap.Prompt)
	sb.WriteString("\n")

	for _, m := range snap.Models {
		sb.WriteString("---\n\n")
		fmt.Fprintf(&sb, "## %s\n\n", m.Model)
		sb.WriteString(Model(m, opts.Thinking))
	}

	// Footer
	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from arena on %s*\n", now.Format("2006-01-02 15:04:05"))

	return sb.String()
}

// Model renders one model's result without a heading
func Model(m session.ModelResult, thinking bool) string {
	var sb strings.Builder

	switch m.Error {
	case "":
	case session.StoppedMessage:
		fmt.Fprintf(&sb, "*%s.*\n\n", m.Error)
	default:
		fmt.Fprintf(&sb, "**Error:** %s\n\n", m.Error)
	}
	if thinking && m.Segment.HasThinking() {
		sb.WriteString("<details>\n<summary>Thinking</summary>\n\n")
		writeQuoted(&sb, m.Segment.Thinking)
		sb.WriteString("\n</details>\n\n")
	}

	response := strings.TrimSpace(m.Segment.Response)
	switch {
	case response != "":
		sb.WriteString(response)
		sb.WriteString("\n")
	case m.Error == "":
		sb.WriteString("*No response.*\n")
	}
	return sb.String()
}

// Write exports a session to a markdown file under baseDir
func Write(snap session.Snapshot, opts Options, baseDir string) (string, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
		opts.Now = now
	}

	// Generate filename: YYYY-MM-DD-HHMMSS-prompt.md
	filename := fmt.Sprintf("%s-%s.md", now.Format("2006-01-02-150405"), sanitizeFilename(snap.Prompt))

	dir := filepath.Join(baseDir, "sessions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create sessions directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(Session(snap, opts)), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// title shortens the prompt to its first line
func title(prompt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(prompt), "\n")
	if r := []rune(line); len(r) > 60 {
		line = string(r[:60]) + "..."
	}
	if line == "" {
		return "Untitled session"
	}
	return line
}

func writeQuoted(sb *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if containsCodeBlock(text) {
		// Content already has code blocks, render as-is
		sb.WriteString(text)
		sb.WriteString("\n")
		return
	}
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.Join(strings.Fields(name), "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	result := sb.String()

	// Collapse multiple hyphens
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if len(result) > 50 {
		result = strings.TrimRight(result[:50], "-")
	}
	if result == "" {
		result = "session"
	}
	return result
}

// containsCodeBlock checks if content already has markdown code blocks
func containsCodeBlock(content string) bool {
	return strings.Contains(content, "```")
}
