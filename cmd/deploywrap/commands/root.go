package commands

import (
	"github.com/spf13/cobra"
)

// Root returns the root cobra command with all subcommands attached.
// Errors are left to main so that wrapped exit codes pass through silently.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deploywrap",
		Short:         "Wrap Salesforce deployments with readable error reports",
		Long:          "deploywrap runs sf deployments, strips wrapper-only flags, writes an Apex coverage summary and explains failures.",
		SilenceErrors: true,
	}

	cmd.AddCommand(initCmd())
	cmd.AddCommand(deployCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(execCmd())
	cmd.AddCommand(tipsCmd())
	cmd.AddCommand(historyCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
