package usage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

func int64p(v int64) *int64 { return &v }

func testSessions() []gateway.Session {
	return []gateway.Session{
		{ID: "s1", Status: "active", UpdatedAt: int64p(1760000000000), Usage: &gateway.Usage{TotalTokens: int64p(100)}},
		{ID: "s2", UpdatedAt: int64p(1760000100000)},
		{ID: ""},
	}
}

func TestSyncerStoresSessions(t *testing.T) {
	store := openTestStore(t)

	var gotLimit int
	syncer := NewSyncer(SyncerConfig{
		Store: store,
		Limit: 25,
		FetchFn: func(ctx context.Context, limit int) ([]gateway.Session, error) {
			gotLimit = limit
			return testSessions(), nil
		},
	})

	n, err := syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if n != 2 {
		t.Errorf("stored %d sessions, want 2 (blank id skipped)", n)
	}
	if gotLimit != 25 {
		t.Errorf("fetch limit = %d, want 25", gotLimit)
	}

	records, err := store.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 || records[0].SessionID != "s2" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Status != "unknown" || records[1].TotalTokens != 100 {
		t.Errorf("records not normalized: %+v", records)
	}
}

func TestSyncerFetchFailureLeavesStore(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Upsert([]Record{{SessionID: "existing"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	syncer := NewSyncer(SyncerConfig{
		Store: store,
		FetchFn: func(ctx context.Context, limit int) ([]gateway.Session, error) {
			return nil, &gateway.Error{Kind: gateway.KindUnreachable, Message: "connection refused"}
		},
	})

	if _, err := syncer.SyncOnce(context.Background()); !errors.Is(err, gateway.ErrTransportUnreachable) {
		t.Errorf("expected unreachable error, got %v", err)
	}

	records, _ := store.List(0)
	if len(records) != 1 {
		t.Errorf("expected store untouched, got %d records", len(records))
	}
}

func TestSyncerNoSessionsIsNoop(t *testing.T) {
	store := openTestStore(t)

	syncer := NewSyncer(SyncerConfig{
		Store: store,
		FetchFn: func(ctx context.Context, limit int) ([]gateway.Session, error) {
			return []gateway.Session{}, nil
		},
	})

	n, err := syncer.SyncOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("SyncOnce = %d, %v", n, err)
	}
}

func TestSyncerDefaults(t *testing.T) {
	s := NewSyncer(SyncerConfig{})
	if s.interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s", s.interval)
	}
	if s.limit != 50 {
		t.Errorf("limit = %d, want 50", s.limit)
	}
}

func TestSyncerStartRespectsContext(t *testing.T) {
	store := openTestStore(t)

	var mu sync.Mutex
	calls := 0
	syncer := NewSyncer(SyncerConfig{
		Store:    store,
		Interval: 10 * time.Millisecond,
		FetchFn: func(ctx context.Context, limit int) ([]gateway.Session, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil, nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := syncer.Start(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Start should return context.DeadlineExceeded, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Error("Start should sync immediately")
	}
}

func TestSyncerLogFn(t *testing.T) {
	store := openTestStore(t)

	var logs []string
	syncer := NewSyncer(SyncerConfig{
		Store: store,
		FetchFn: func(ctx context.Context, limit int) ([]gateway.Session, error) {
			return testSessions(), nil
		},
		LogFn: func(level, msg string) {
			logs = append(logs, level+": "+msg)
		},
	})

	syncer.SyncOnce(context.Background())

	if len(logs) != 1 || !strings.Contains(logs[0], "stored 2 sessions") {
		t.Errorf("logs = %v", logs)
	}
}
