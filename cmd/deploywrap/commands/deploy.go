package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecairns22/deploywrap/internal/config"
)

const passthroughHelp = `All arguments are forwarded to the underlying command. Bare values are quoted.
These wrapper flags are consumed and never forwarded:
  --debug, -d         verbose logging
  --websocket <url>   progress websocket (ignored)
  --skipauth          accepted for compatibility
  --checkcoverage     fail when Apex coverage is below coverage.min_percent`

func deployCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "deploy [sf args...]",
		Short:              "Deploy metadata with the configured sf deploy command",
		Long:               "Runs sf.deploy_command (default \"sf project deploy start\").\n\n" + passthroughHelp,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := func(cfg *config.Config) string { return cfg.SF.DeployCommand }
			return runWrapped(cmd, base, args, false)
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "validate [sf args...]",
		Short:              "Simulate a deployment with the configured sf validate command",
		Long:               "Runs sf.validate_command (default \"sf project deploy validate\"). Failures are reported as simulations.\n\n" + passthroughHelp,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := func(cfg *config.Config) string { return cfg.SF.ValidateCommand }
			return runWrapped(cmd, base, args, true)
		},
	}
}

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "exec <base command> [args...]",
		Short:              "Wrap any command line",
		Long:               "The first argument is the base command, used as-is (e.g. \"sfdx force:source:deploy\").\n\n" + passthroughHelp,
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			base := strings.TrimSpace(args[0])
			return runWrapped(cmd, func(*config.Config) string { return base }, args[1:], false)
		},
	}
}
