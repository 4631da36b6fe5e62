// cmd/helpers.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
	"github.com/aceteam-ai/gatewatch/internal/usage"
)

// msTime converts an optional epoch-millisecond value.
func msTime(ms *int64) (time.Time, bool) {
	if ms == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*ms), true
}

// relativeMs renders an optional timestamp as "3 minutes ago", or "-".
func relativeMs(ms *int64) string {
	t, _ := msTime(ms)
	return relativeTime(t)
}

// relativeTime renders t as "3 minutes ago", or "-" when unset.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatTokens(n int64) string {
	return humanize.Comma(n)
}

func formatCost(c float64) string {
	return fmt.Sprintf("$%.4f", c)
}

// shortID trims long session identifiers for table output.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "…"
}

// openStore opens the usage database, creating its directory if needed.
func openStore(path string) (*usage.Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	store, err := usage.OpenStore(path)
	if err != nil {
		return nil, err
	}
	Debug("usage store opened at %s", path)
	return store, nil
}

// sessionFetcher lists sessions without message bodies for the syncer.
func sessionFetcher(client *gateway.Client) usage.FetchFunc {
	return func(ctx context.Context, limit int) ([]gateway.Session, error) {
		return client.ListSessions(ctx, limit, 0)
	}
}

// syncLogFn adapts the syncer's log callback to the process logger.
func syncLogFn(level, msg string) {
	switch level {
	case "warning", "error":
		logger.Warn().Msg(msg)
	case "info":
		logger.Info().Msg(msg)
	default:
		logger.Debug().Msg(msg)
	}
}
