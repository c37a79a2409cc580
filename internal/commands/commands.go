// Package commands handles slash command parsing for the arena TUI.
package commands

import (
	"strings"
)

// Command interface for all command types
type Command interface {
	Type() string
}

// Help returns help text
type Help struct{}

func (Help) Type() string { return "help" }

// ToggleModels toggles the model selection row
type ToggleModels struct{}

func (ToggleModels) Type() string { return "models" }

// ToggleThinking shows or hides thinking panes
type ToggleThinking struct{}

func (ToggleThinking) Type() string { return "thinking" }

// Stop cancels the running generation
type Stop struct{}

func (Stop) Type() string { return "stop" }

// CopyTarget selects what /copy puts on the clipboard
type CopyTarget string

const (
	CopyResponse CopyTarget = "response"
	CopyThinking CopyTarget = "thinking"
	CopyAll      CopyTarget = "all"
)

// Copy copies output of the focused model, or the whole session
type Copy struct {
	Target CopyTarget
}

func (Copy) Type() string { return "copy" }

// Clear empties the output columns
type Clear struct{}

func (Clear) Type() string { return "clear" }

// Select replaces the model selection
type Select struct {
	Models []string
}

func (Select) Type() string { return "select" }

// Export writes the current session to a markdown file
type Export struct{}

func (Export) Type() string { return "export" }

// Refresh re-checks model availability
type Refresh struct{}

func (Refresh) Type() string { return "refresh" }

// Attach adds files to the next prompt. No paths drops the attachments.
type Attach struct {
	Paths []string
}

func (Attach) Type() string { return "attach" }

// ParseError represents a command parsing error
type ParseError struct {
	Message string
}

func (ParseError) Type() string { return "error" }

// Parse parses user input and returns the appropriate Command.
// Returns nil if the input is not a slash command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	// Split into command and arguments
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		return Help{}

	case "/models":
		return ToggleModels{}

	case "/thinking":
		return ToggleThinking{}

	case "/stop":
		return Stop{}

	case "/copy":
		if len(args) == 0 {
			return Copy{Target: CopyResponse}
		}
		switch target := CopyTarget(strings.ToLower(args[0])); target {
		case CopyResponse, CopyThinking, CopyAll:
			return Copy{Target: target}
		default:
			return ParseError{Message: "/copy takes response, thinking, or all"}
		}

	case "/clear":
		return Clear{}

	case "/select":
		models := splitModels(strings.Join(args, " "))
		if len(models) == 0 {
			return ParseError{Message: "/select requires model names, e.g. /select qwen3,gemma3"}
		}
		return Select{Models: models}

	case "/export":
		return Export{}

	case "/refresh":
		return Refresh{}

	case "/attach":
		return Attach{Paths: args}

	default:
		return ParseError{Message: "unknown command: " + cmd}
	}
}

// splitModels accepts comma and/or space separated names, dropping repeats
func splitModels(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// HelpText returns the help text for all available commands.
func HelpText() string {
	return `Available commands:
  /help                    - Show this help
  /models                  - Toggle the model selection row
  /thinking                - Show or hide thinking panes
  /stop                    - Stop the running generation
  /copy [response|thinking|all]
                           - Copy the focused model's output, or the whole session
  /clear                   - Clear all output columns
  /select <a,b,...>        - Select exactly these models
  /export                  - Save the session as markdown
  /refresh                 - Re-check which models are installed
  /attach [path...]        - Attach files to the next prompt (no path clears)`
}
