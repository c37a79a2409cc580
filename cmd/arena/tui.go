package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"arena/internal/client"
	"arena/internal/config"
	"arena/internal/session"
	"arena/internal/ui"
)

var tuiExportDir string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the side-by-side TUI (the default command)",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	for _, c := range []*cobra.Command{rootCmd, tuiCmd} {
		c.Flags().StringVar(&tuiExportDir, "export-dir", ".", "Directory /export writes sessions under")
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := openLog(config.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(logFile)

	httpClient := newHTTPClient(cfg, logger)
	observer := ui.NewObserver()
	controller := session.NewController(
		client.NewTransport(cfg.Client.BackendURL, httpClient, logger),
		observer,
		session.WithLogger(logger),
	)

	model := ui.New(ui.Options{
		Controller:   controller,
		Checker:      client.NewChecker(cfg.Client.BackendURL, httpClient, cfg.StatusTimeout()),
		Models:       cfg.Models,
		ShowThinking: cfg.ShowThinking(),
		ExportDir:    tuiExportDir,
		Logger:       logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	observer.Attach(p)
	logger.Info("tui: starting", "backend", cfg.Client.BackendURL)

	_, err = p.Run()
	controller.Cancel()
	return err
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
