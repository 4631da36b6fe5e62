// cmd/lint.go
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/schedule"
)

var lintCmd = &cobra.Command{
	Use:   "lint <cron-expression>",
	Short: "Check how a cron expression will be projected",
	Long: `Validates a cron expression with a full cron parser and reports where the
calendar projection differs: only single minute and hour values and a
single day-of-week (or *) are projected; day-of-month and month are ignored.`,
	Example: `  gatewatch lint "0 9 * * 1"
  gatewatch lint "*/15 * * * *"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr := strings.Join(args, " ")
		res := schedule.Lint(expr)

		if !res.Valid {
			badColor.Printf("✗ %q is not a valid cron expression: %s\n", expr, res.Error)
		} else if res.Projected {
			goodColor.Printf("✓ %q is projected on the calendar\n", expr)
		} else {
			warnColor.Printf("⚠ %q is valid but will not appear on the calendar\n", expr)
		}
		for _, w := range res.Warnings {
			warnColor.Printf("  - %s\n", w)
		}

		if next, ok := schedule.Next(expr, time.Now()); ok {
			fmt.Printf("Next run (full cron): %s\n", next.Format("Mon 2006-01-02 15:04 MST"))
		}
		if !res.Valid {
			return fmt.Errorf("invalid cron expression")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)
}
