package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"arena/internal/client"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show which configured models are installed",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	checker := client.NewChecker(cfg.Client.BackendURL, newHTTPClient(cfg, quietLogger()), cfg.StatusTimeout())

	installed, err := checker.Available(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get models: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), modelsTable(cfg.Models, installed))
	return nil
}

// modelsTable lists configured models with their installed match, then the
// installed models nothing is configured for.
func modelsTable(configured, installed []string) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("MODEL", "STATUS", "INSTALLED AS")

	matched := make(map[string]bool)
	for _, name := range configured {
		i := slices.IndexFunc(installed, func(s string) bool {
			return client.IsInstalled(name, []string{s})
		})
		if i < 0 {
			table.AddRow(name, "missing", "-")
			continue
		}
		matched[installed[i]] = true
		table.AddRow(name, "installed", installed[i])
	}

	var extra []string
	for _, name := range installed {
		if !matched[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		table.AddRow(strings.SplitN(name, ":", 2)[0], "not configured", name)
	}
	return table
}
