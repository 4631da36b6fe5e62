// cmd/history.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/usage"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show session usage recorded by sync",
	Long: `Reads the local usage database without contacting the gateway. With a
session ID, shows that session's latest snapshot.`,
	Example: `  gatewatch history
  gatewatch history -n 20
  gatewatch history sess-42`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			rec, err := store.Get(args[0])
			if err != nil {
				return fmt.Errorf("session %s: %w", args[0], err)
			}
			printRecord(rec)
			return nil
		}

		records, err := store.List(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No sessions recorded yet. Run 'gatewatch sync' first.")
			return nil
		}

		sum := usage.AggregateRecords(records)
		fmt.Println(ui.TitleStyle.Render(fmt.Sprintf("%d session(s), %s tokens, %s",
			sum.Count, formatTokens(sum.TotalTokens), formatCost(sum.TotalCost))))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tSTATUS\tMODEL\tTOKENS\tCOST\tLAST ACTIVE\tSYNCED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				shortID(r.SessionID), r.Status, r.Model,
				formatTokens(r.TotalTokens), formatCost(r.Cost),
				relativeTime(r.LastActive()), relativeTime(r.SyncedAt))
		}
		return w.Flush()
	},
}

func printRecord(r usage.Record) {
	fmt.Println(ui.FormatKeyValue("Session", r.SessionID))
	fmt.Println(ui.FormatKeyValue("Status", r.Status))
	fmt.Println(ui.FormatKeyValue("Model", r.Model))
	fmt.Println(ui.FormatKeyValue("Messages", humanize.Comma(r.MessageCount)))
	fmt.Println(ui.FormatKeyValue("Tokens", fmt.Sprintf("%s (prompt %s, completion %s)",
		formatTokens(r.TotalTokens), formatTokens(r.PromptTokens), formatTokens(r.CompletionTokens))))
	fmt.Println(ui.FormatKeyValue("Cost", formatCost(r.Cost)))
	fmt.Println(ui.FormatKeyValue("Last active", relativeTime(r.LastActive())))
	fmt.Println(ui.FormatKeyValue("Synced", relativeTime(r.SyncedAt)))
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Number of sessions to show (0 for all)")
}
