package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past wrapped invocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildStateOnly()
			if err != nil {
				return err
			}
			defer store.Close()

			invocations, err := store.ListInvocations(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(invocations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invocations recorded. Run 'deploywrap deploy' to get started.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tEXIT\tMODE\tCOVERAGE\tTIPS\tDURATION\tCOMMAND")

			for _, inv := range invocations {
				mode := "deploy"
				if inv.CheckOnly {
					mode = "check"
				}
				cov := "-"
				if inv.Coverage != nil {
					cov = fmt.Sprintf("%.2f%%", *inv.Coverage)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
					inv.StartedAt.Format("2006-01-02 15:04:05"), inv.ExitCode, mode, cov, inv.Tips, inv.Duration, inv.Command)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of invocations to show (0 = all)")

	return cmd
}
