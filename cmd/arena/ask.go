package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"arena/internal/attach"
	"arena/internal/client"
	"arena/internal/export"
	"arena/internal/models"
	"arena/internal/session"
	"arena/internal/ui"
)

const askWidth = 80

var (
	askModels     []string
	askNoThinking bool
	askMarkdown   bool
	askFiles      []string
)

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send one prompt and print every model's answer",
	Long: `Send one prompt to several models and print their answers once all are done.

Without --models, the configured models that are installed are asked.

Examples:
  arena ask "what is a monad?"
  arena ask -m qwen3,deepseek-r1 "prove sqrt(2) is irrational"
  arena ask --markdown --no-thinking "summarize TCP" > answers.md
  arena ask -f main.go "find the bug"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringSliceVarP(&askModels, "models", "m", nil, "Models to ask (default: installed configured models)")
	askCmd.Flags().BoolVar(&askNoThinking, "no-thinking", false, "Leave out the thinking part of each answer")
	askCmd.Flags().BoolVar(&askMarkdown, "markdown", false, "Print the session as markdown")
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "Attach a file to the prompt (repeatable)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	files, err := attach.LoadAll(askFiles)
	if err != nil {
		return err
	}
	logger := quietLogger()
	httpClient := newHTTPClient(cfg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selection := askModels
	if len(selection) == 0 {
		checker := client.NewChecker(cfg.Client.BackendURL, httpClient, cfg.StatusTimeout())
		status, err := checker.Status(ctx, cfg.Models)
		if err != nil {
			return fmt.Errorf("failed to get models: %w", err)
		}
		selection = client.DefaultSelection(cfg.Models, status)
		if len(selection) == 0 {
			return errors.New("none of the configured models are installed; see `arena models`")
		}
	}

	controller := session.NewController(
		client.NewTransport(cfg.Client.BackendURL, httpClient, logger),
		nil,
		session.WithLogger(logger),
	)
	s, err := controller.Start(ctx, session.Request{
		Prompt: attach.Prompt(strings.Join(args, " "), files),
		Models: selection,
	})
	if err != nil {
		return err
	}
	reason := s.Wait()
	if reason.State == session.StateFailed {
		return reason.Err
	}

	out := cmd.OutOrStdout()
	snap := s.Snapshot()
	if askMarkdown {
		_, err := io.WriteString(out, export.Session(snap, export.Options{Thinking: !askNoThinking}))
		return err
	}
	printSnapshot(out, snap, !askNoThinking, useColor(out))
	return nil
}

func printSnapshot(w io.Writer, snap session.Snapshot, thinking, color bool) {
	for i, m := range snap.Models {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("== %s (%s) ==", m.Model, m.Status)
		if color {
			header = ui.ModelStyle(models.ColorFor(i)).Render(header)
		}
		fmt.Fprintln(w, header)

		if m.Error != "" {
			if m.Error == session.StoppedMessage {
				fmt.Fprintln(w, m.Error)
			} else {
				fmt.Fprintln(w, "[ERROR]: "+m.Error)
			}
			continue
		}

		if thinking && m.Segment.HasThinking() {
			text := wordwrap.String(m.Segment.Thinking, askWidth)
			if color {
				fmt.Fprintln(w, ui.ThinkingLabel.Render("Thinking"))
				text = ui.ThinkingStyle.Render(text)
			} else {
				fmt.Fprintln(w, "Thinking:")
			}
			fmt.Fprintln(w, text)
			fmt.Fprintln(w)
		}

		response := strings.TrimSpace(m.Segment.Response)
		switch {
		case response == "":
			fmt.Fprintln(w, "(no response)")
		case color:
			fmt.Fprintln(w, ui.RenderMarkdown(response, askWidth))
		default:
			fmt.Fprintln(w, response)
		}
	}
}

func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
