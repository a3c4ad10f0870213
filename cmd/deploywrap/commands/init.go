package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecairns22/deploywrap/internal/config"
	"github.com/ecairns22/deploywrap/internal/deploytips"
	"github.com/ecairns22/deploywrap/internal/state"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "First-time setup: write config template, check tips and history store",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	// 1. Write template config if missing
	configPath := config.DefaultPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if dir := filepath.Dir(configPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating config dir %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(configPath, []byte(config.TemplateConfig()), 0644); err != nil {
			return fmt.Errorf("writing config template: %w", err)
		}
		fmt.Fprintf(w, "  wrote config template to %s\n", configPath)
	}

	// 2. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fmt.Fprintf(w, "  config loaded from %s\n", configPath)

	// 3. Compile deploy tips
	catalog, err := deploytips.LoadCatalog(cfg.Tips.RulesFile)
	if err != nil {
		fmt.Fprintf(w, "  deploy tips: FAILED (%v)\n", err)
		return err
	}
	fmt.Fprintf(w, "  deploy tips: %d rules\n", catalog.Len())

	// 4. Initialize history store
	store, err := state.Open(cfg.State.Driver, cfg.State.DSN)
	if err != nil {
		fmt.Fprintf(w, "  history store: FAILED (%v)\n", err)
		return fmt.Errorf("initializing history store: %w", err)
	}
	store.Close()
	fmt.Fprintf(w, "  history store (%s): OK\n", cfg.State.Driver)

	if cfg.GitHub.Enabled() {
		fmt.Fprintf(w, "  pull request comments: %s/%s#%d\n", cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.PRNumber)
	} else {
		fmt.Fprintln(w, "  pull request comments: disabled")
	}

	fmt.Fprintln(w, "\ndeploywrap initialized successfully.")
	return nil
}
