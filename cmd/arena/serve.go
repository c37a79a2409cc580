package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"arena/internal/models"
	"arena/internal/orchestrator"
	"arena/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend that streams model output",
	Long: `Run the HTTP backend. It exposes

  POST /api/v1/generate   {"prompt": "...", "models": ["qwen3", ...]}
  GET  /api/v1/models

and streams every model's tokens as server-sent events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(os.Stderr)

	registry := models.NewRegistry(cfg, nil)
	orch := orchestrator.New(registry, cfg.ModelTimeout())
	srv := server.New(orch, registry, logger)

	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serve: starting",
		"ollama", cfg.Server.OllamaURL,
		"models", strings.Join(registry.Enabled(), ","),
		"timeout", cfg.ModelTimeout())
	return srv.Run(ctx, addr)
}
