package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"arena/internal/client"
	"arena/internal/config"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Ask several local models the same question, side by side",
	Long: `arena sends one prompt to several Ollama models at once and shows their
answers next to each other, with each model's thinking split from its response.

Examples:
  arena serve                          # start the backend
  arena                                # open the TUI
  arena ask "why is the sky blue?"     # print every installed model's answer
  arena ask -m qwen3,gemma3 --markdown "explain monads"
  arena models                         # which configured models are installed`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	SilenceUsage:      true,
	RunE:              runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// quietLogger logs only with --debug
func quietLogger() *slog.Logger {
	if debug {
		return newLogger(os.Stderr)
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHTTPClient(cfg *config.Config, logger *slog.Logger) *client.RetryableClient {
	return client.NewRetryableClient(client.RetryConfig{
		MaxAttempts: cfg.Client.RetryAttempts,
		BaseDelay:   cfg.RetryDelay(),
		MaxDelay:    10 * cfg.RetryDelay(),
	}, logger)
}
