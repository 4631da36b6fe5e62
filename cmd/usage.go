// cmd/usage.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/usage"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var usageLimit int

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Summarize token usage and cost of recent sessions",
	Example: `  gatewatch usage
  gatewatch usage --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		var sessions []gateway.Session
		err = ui.RunWithSpinner("Fetching sessions", func() error {
			sessions, err = client.ListSessions(cmd.Context(), usageLimit, 0)
			return err
		})
		if err != nil {
			return err
		}

		sum := usage.Aggregate(sessions)
		fmt.Println(ui.TitleStyle.Render(fmt.Sprintf("Usage across the last %d session(s)", sum.Count)))
		fmt.Println(ui.FormatKeyValue("Tokens", formatTokens(sum.TotalTokens)))
		fmt.Println(ui.FormatKeyValue("Cost  ", formatCost(sum.TotalCost)))
		if sum.TotalTokens == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tMODEL\tTOKENS\tSHARE")
		for _, s := range sessions {
			share := float64(s.Tokens()) / float64(sum.TotalTokens) * 100
			fmt.Fprintf(w, "%s\t%s\t%s\t%s %.0f%%\n",
				shortID(s.ID), s.Model, formatTokens(s.Tokens()), ui.ProgressBar(share, 20), share)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().IntVarP(&usageLimit, "limit", "n", 10, "Number of recent sessions to include")
}
