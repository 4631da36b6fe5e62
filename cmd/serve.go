// cmd/serve.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aceteam-ai/gatewatch/internal/dashboard"
	"github.com/aceteam-ai/gatewatch/internal/usage"
)

var (
	serveListen string
	serveNoSync bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local dashboard API",
	Long: `Serves the dashboard JSON API (/api/health, /api/cron, /api/usage,
/api/activity, /api/calendar, /api/history) and periodically snapshots
session usage into the local database.

The API is read-only and rate limited per client IP.`,
	Example: `  gatewatch serve
  gatewatch serve --listen 0.0.0.0:3000
  gatewatch serve --no-sync`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.ListenAddr = serveListen
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}

		srvCfg := dashboard.ServerConfig{
			Addr:           cfg.ListenAddr,
			Version:        Version,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			Logger:         logger.With().Str("component", "dashboard").Logger(),
		}

		g, ctx := errgroup.WithContext(cmd.Context())

		if !serveNoSync {
			store, err := openStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			srvCfg.History = store

			syncer := usage.NewSyncer(usage.SyncerConfig{
				Store:    store,
				FetchFn:  sessionFetcher(client),
				Interval: cfg.SyncInterval,
				LogFn:    syncLogFn,
			})
			g.Go(func() error {
				if err := syncer.Start(ctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}

		server := dashboard.NewServer(srvCfg, client)
		g.Go(func() error {
			return server.Start(ctx)
		})

		goodColor.Printf("Dashboard API on http://%s\n", server.Addr())
		fmt.Printf("Gateway: %s (%s)\n", cfg.GatewayURL, client.Mode())
		if !serveNoSync {
			fmt.Printf("Usage history: %s (sync every %s)\n", cfg.DBPath, cfg.SyncInterval)
		}

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default 127.0.0.1:3000)")
	serveCmd.Flags().BoolVar(&serveNoSync, "no-sync", false, "Disable background usage sync and /api/history")
}
