// cmd/activity.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var activityLimit int

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"sessions"},
	Short:   "List recent gateway sessions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		var sessions []gateway.Session
		err = ui.RunWithSpinner("Fetching sessions", func() error {
			sessions, err = client.ListSessions(cmd.Context(), activityLimit, 0)
			return err
		})
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No recent sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tSTATUS\tMODEL\tMESSAGES\tTOKENS\tCOST\tUPDATED")
		for _, s := range sessions {
			status := s.Status
			if status == "" {
				status = "unknown"
			}
			updated := s.UpdatedAt
			if updated == nil {
				updated = s.CreatedAt
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				shortID(s.ID), status, s.Model, s.MessageCount,
				formatTokens(s.Tokens()), formatCost(s.CostTotal()), relativeMs(updated))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 50, "Number of sessions to list")
}
