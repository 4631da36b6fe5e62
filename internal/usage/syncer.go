package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// FetchFunc returns the current session list from the gateway.
type FetchFunc func(ctx context.Context, limit int) ([]gateway.Session, error)

// SyncerConfig holds configuration for the background syncer.
type SyncerConfig struct {
	// Store is the local usage database
	Store *Store

	// FetchFn pulls sessions from the gateway
	FetchFn FetchFunc

	// Interval between sync cycles (default: 60s)
	Interval time.Duration

	// Limit is the max sessions requested per cycle (default: 50)
	Limit int

	// LogFn is called for log messages (optional)
	LogFn func(level, msg string)
}

// Syncer periodically snapshots gateway sessions into the local store.
type Syncer struct {
	store    *Store
	fetchFn  FetchFunc
	interval time.Duration
	limit    int
	logFn    func(level, msg string)
}

// NewSyncer creates a new usage syncer.
func NewSyncer(cfg SyncerConfig) *Syncer {
	interval := cfg.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}
	limit := cfg.Limit
	if limit == 0 {
		limit = 50
	}
	return &Syncer{
		store:    cfg.Store,
		fetchFn:  cfg.FetchFn,
		interval: interval,
		limit:    limit,
		logFn:    cfg.LogFn,
	}
}

// Start syncs once immediately, then every interval until the context is
// cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

// SyncOnce performs a single sync cycle and reports how many sessions were
// written.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	return s.syncOnce(ctx)
}

func (s *Syncer) syncOnce(ctx context.Context) (int, error) {
	sessions, err := s.fetchFn(ctx, s.limit)
	if err != nil {
		s.log("warning", fmt.Sprintf("usage sync: fetch failed: %v", err))
		return 0, err
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	records := make([]Record, 0, len(sessions))
	for _, sess := range sessions {
		records = append(records, FromSession(sess))
	}

	n, err := s.store.Upsert(records)
	if err != nil {
		s.log("warning", fmt.Sprintf("usage sync: store failed (%d sessions): %v", len(records), err))
		return 0, err
	}

	s.log("info", fmt.Sprintf("usage sync: stored %d sessions", n))
	return n, nil
}

func (s *Syncer) log(level, msg string) {
	if s.logFn != nil {
		s.logFn(level, msg)
	}
}
