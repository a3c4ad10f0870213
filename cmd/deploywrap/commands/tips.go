package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecairns22/deploywrap/internal/config"
	"github.com/ecairns22/deploywrap/internal/deploytips"
)

func tipsCmd() *cobra.Command {
	var (
		check bool
		terse bool
	)

	cmd := &cobra.Command{
		Use:   "tips [log file]",
		Short: "Analyze a deployment log and print fix hints",
		Long:  "Reads the log file, or stdin when no file is given, and prints the deploy error report.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("reading log: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			catalog, err := deploytips.LoadCatalog(cfg.Tips.RulesFile)
			if err != nil {
				return err
			}

			report := deploytips.New(catalog).Analyze(string(data), !terse, deploytips.Options{Check: check})
			fmt.Fprintln(cmd.OutOrStdout(), report.ErrLog)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "checkonly", false, "Report the log as a deployment simulation")
	cmd.Flags().BoolVar(&terse, "terse", false, "Only keep log lines that matched a tip")

	return cmd
}
