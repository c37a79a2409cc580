// internal/export/markdown_test.go
package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arena/internal/session"
	"arena/internal/thinking"
)

func testSnapshot() session.Snapshot {
	return session.Snapshot{
		ID:     "abc123",
		Prompt: "What is the capital of France?\nAnswer briefly.",
		State:  session.StateCompleted,
		Models: []session.ModelResult{
			{
				Model:   "qwen3",
				Status:  session.ModelDone,
				Segment: thinking.Segmentation{Thinking: "The user asks\nabout France.", Response: "Paris."},
			},
			{
				Model:  "gemma3",
				Status: session.ModelErrored,
				Error:  "model not found",
			},
			{
				Model:  "llama3.2",
				Status: session.ModelStopped,
				Error:  session.StoppedMessage,
			},
			{
				Model:  "phi4",
				Status: session.ModelDone,
			},
		},
	}
}

func TestSession(t *testing.T) {
	now := time.Date(2026, 2, 1, 14, 30, 0, 0, time.UTC)
	result := Session(testSnapshot(), Options{Thinking: true, Now: now})

	checks := []string{
		"# What is the capital of France?\n",
		"**Session ID:** `abc123`",
		"**Exported:** 2026-02-01 14:30:00",
		"**State:** completed",
		"**Models:** qwen3, gemma3, llama3.2, phi4",
		"> What is the capital of France?\n> Answer briefly.\n",
		"## qwen3",
		"<summary>Thinking</summary>",
		"> The user asks\n> about France.\n",
		"Paris.\n",
		"**Error:** model not found",
		"## llama3.2\n\n*Generation stopped.*\n",
		"## phi4\n\n*No response.*\n",
	}
	for _, want := range checks {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in output:\n%s", want, result)
		}
	}
}

func TestSessionWithoutThinking(t *testing.T) {
	result := Session(testSnapshot(), Options{})

	if strings.Contains(result, "<details>") || strings.Contains(result, "about France") {
		t.Errorf("expected thinking to be omitted:\n%s", result)
	}
	if !strings.Contains(result, "Paris.") {
		t.Error("expected the response to be kept")
	}
}

func TestModelKeepsCodeBlocks(t *testing.T) {
	m := session.ModelResult{
		Model:   "m",
		Segment: thinking.Segmentation{Thinking: "```go\nx := 1\n```"},
	}
	result := Model(m, true)
	if strings.Contains(result, "> ```") {
		t.Errorf("expected code blocks not to be quoted:\n%s", result)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 2, 1, 14, 30, 5, 0, time.UTC)

	path, err := Write(testSnapshot(), Options{Now: now}, dir)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(dir, "sessions", "2026-02-01-143005-what-is-the-capital-of-france-answer-briefly.md")
	if path != want {
		t.Errorf("expected %s, got %s", want, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Paris.") {
		t.Error("expected file to contain the export")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Simple Name", "simple-name"},
		{"UPPERCASE", "uppercase"},
		{"special!@#$%chars", "specialchars"},
		{"multiple   spaces", "multiple-spaces"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"", "session"},
		{"!!!", "session"},
		{"tabs\tand\nnewlines", "tabs-and-newlines"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestTitle(t *testing.T) {
	if got := title(""); got != "Untitled session" {
		t.Errorf("expected placeholder, got %q", got)
	}
	long := strings.Repeat("é", 70)
	if got := title(long); got != strings.Repeat("é", 60)+"..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}
