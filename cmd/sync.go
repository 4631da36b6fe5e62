// cmd/sync.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/usage"
	"github.com/aceteam-ai/gatewatch/internal/ui"
)

var syncLimit int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Snapshot recent sessions into the local usage database",
	Long: `Fetches recent sessions from the gateway and upserts their usage into
the local SQLite database (--db). Each session keeps only its latest snapshot.

'gatewatch serve' runs the same sync in the background.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}

		store, err := openStore(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		syncer := usage.NewSyncer(usage.SyncerConfig{
			Store:   store,
			FetchFn: sessionFetcher(client),
			Limit:   syncLimit,
			LogFn:   syncLogFn,
		})

		var n int
		err = ui.RunWithSpinner("Syncing sessions", func() error {
			n, err = syncer.SyncOnce(cmd.Context())
			return err
		})
		if err != nil {
			return err
		}

		sum, err := store.Summary()
		if err != nil {
			return err
		}
		fmt.Printf("Stored %d session(s) in %s\n", n, cfg.DBPath)
		fmt.Printf("History: %d session(s), %s tokens, %s\n", sum.Count, formatTokens(sum.TotalTokens), formatCost(sum.TotalCost))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().IntVarP(&syncLimit, "limit", "n", 50, "Number of recent sessions to fetch")
}
