// cmd/ping.go
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the gateway is reachable",
	Long: `Sends the gateway's liveness probe and reports the round-trip time.

A gateway that answers with a logical error is still reported as reachable,
matching the dashboard's /api/health classification.`,
	Example: `  gatewatch ping                      # Ping once
  gatewatch ping -c 5                 # Ping 5 times
  gatewatch ping --transport ws       # Ping over the WebSocket session`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		fmt.Printf("PING %s (%s)\n", client.BaseURL(), client.Mode())

		successCount := 0
		var totalLatency time.Duration
		for i := 0; i < pingCount; i++ {
			if i > 0 {
				time.Sleep(pingInterval)
			}

			start := time.Now()
			err := client.Ping(cmd.Context())
			latency := time.Since(start)

			if err != nil && gateway.KindOf(err) != gateway.KindRemote {
				badColor.Printf("  seq=%d %s: %v\n", i+1, gateway.KindOf(err), err)
				continue
			}
			successCount++
			totalLatency += latency
			if err != nil {
				warnColor.Printf("  seq=%d time=%s (gateway error: %v)\n", i+1, formatLatency(latency), err)
			} else {
				goodColor.Printf("  seq=%d time=%s\n", i+1, formatLatency(latency))
			}
		}

		fmt.Println()
		loss := float64(pingCount-successCount) / float64(pingCount) * 100
		fmt.Printf("--- %s ping statistics ---\n", client.BaseURL())
		fmt.Printf("%d sent, %d received, %.0f%% loss", pingCount, successCount, loss)
		if successCount > 0 {
			fmt.Printf(", avg %s", formatLatency(totalLatency/time.Duration(successCount)))
		}
		fmt.Println()

		if successCount == 0 {
			return fmt.Errorf("gateway %s is unreachable", client.BaseURL())
		}
		return nil
	},
}

// formatLatency renders d in milliseconds with one decimal.
func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 1, "Number of pings to send")
	pingCmd.Flags().DurationVarP(&pingInterval, "interval", "i", time.Second, "Wait between pings")
	pingCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if pingCount < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		return nil
	}
}
