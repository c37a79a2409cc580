package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"arena/internal/session"
	"arena/internal/stream"
	"arena/internal/thinking"
)

type pipeTransport struct{ body io.ReadCloser }

func (p pipeTransport) Open(context.Context, session.Request) (io.ReadCloser, error) {
	return p.body, nil
}

func TestPrintSnapshot(t *testing.T) {
	snap := session.Snapshot{
		Models: []session.ModelResult{
			{Model: "qwen3", Status: session.ModelDone, Segment: thinking.Segmentation{Thinking: "hmm", Response: "Paris."}},
			{Model: "gemma3", Status: session.ModelErrored, Error: "model not found"},
			{Model: "phi", Status: session.ModelDone},
		},
	}

	var buf bytes.Buffer
	printSnapshot(&buf, snap, true, false)
	out := buf.String()

	for _, want := range []string{
		"== qwen3 (done) ==\nThinking:\nhmm\n\nParis.\n",
		"== gemma3 (error) ==\n[ERROR]: model not found\n",
		"== phi (done) ==\n(no response)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	printSnapshot(&buf, snap, false, false)
	if strings.Contains(buf.String(), "hmm") {
		t.Errorf("expected thinking omitted:\n%s", buf.String())
	}
}

func TestPrintSnapshotAfterCancel(t *testing.T) {
	pr, pw := io.Pipe()
	c := session.NewController(pipeTransport{body: pr}, nil)
	s, err := c.Start(context.Background(), session.Request{Prompt: "p", Models: []string{"qwen3", "llama3.2"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	go stream.WriteRecord(pw, stream.TokenRecord("qwen3", "Par", false))
	deadline := time.Now().Add(2 * time.Second)
	for s.Text("qwen3") != "Par" {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for qwen3 output")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Cancel()
	if reason := s.Wait(); reason.State != session.StateCancelled {
		t.Fatalf("expected cancelled, got %s", reason.State)
	}

	var buf bytes.Buffer
	printSnapshot(&buf, s.Snapshot(), true, false)
	out := buf.String()
	for _, want := range []string{
		"== qwen3 (streaming) ==\nPar\n",
		"== llama3.2 (stopped) ==\nGeneration stopped\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestModelsTable(t *testing.T) {
	table := modelsTable(
		[]string{"qwen3", "gemma3"},
		[]string{"qwen3:latest", "mistral:7b"},
	).String()

	lines := strings.Split(table, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 rows, got %d:\n%s", len(lines), table)
	}
	checks := [][]string{
		{"MODEL", "STATUS", "INSTALLED AS"},
		{"qwen3", "installed", "qwen3:latest"},
		{"gemma3", "missing", "-"},
		{"mistral", "not configured", "mistral:7b"},
	}
	for i, fields := range checks {
		got := strings.Fields(lines[i])
		if strings.Join(got, " ") != strings.Join(fields, " ") {
			t.Errorf("row %d: expected %v, got %v", i, fields, got)
		}
	}
}

func TestUseColorNeedsTerminal(t *testing.T) {
	if useColor(&bytes.Buffer{}) {
		t.Error("expected no color for a buffer")
	}
}
