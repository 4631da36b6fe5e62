package usage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_usage (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id        TEXT NOT NULL UNIQUE,
    status            TEXT NOT NULL DEFAULT 'unknown',
    model             TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT '',
    updated_at        TEXT NOT NULL DEFAULT '',
    prompt_tokens     INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens      INTEGER NOT NULL DEFAULT 0,
    cost              REAL NOT NULL DEFAULT 0,
    message_count     INTEGER NOT NULL DEFAULT 0,
    synced_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_usage_updated ON session_usage(updated_at);
`

const selectColumns = `
	SELECT id, session_id, status, model, created_at, updated_at,
	       prompt_tokens, completion_tokens, total_tokens,
	       cost, message_count, synced_at
	FROM session_usage`

// Store provides SQLite-backed storage for session usage snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStore opens (or creates) the usage database at dbPath and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	// Enable WAL mode so the dashboard can read while sync writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Upsert writes the latest snapshot of each record, keyed by session ID.
// Records without a session ID are skipped. It returns how many were written.
func (s *Store) Upsert(records []Record) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO session_usage (
			session_id, status, model, created_at, updated_at,
			prompt_tokens, completion_tokens, total_tokens,
			cost, message_count, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status            = excluded.status,
			model             = excluded.model,
			created_at        = excluded.created_at,
			updated_at        = excluded.updated_at,
			prompt_tokens     = excluded.prompt_tokens,
			completion_tokens = excluded.completion_tokens,
			total_tokens      = excluded.total_tokens,
			cost              = excluded.cost,
			message_count     = excluded.message_count,
			synced_at         = excluded.synced_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	syncedAt := formatTime(s.now())
	written := 0
	for _, r := range records {
		if r.SessionID == "" {
			continue
		}
		status := r.Status
		if status == "" {
			status = "unknown"
		}
		if _, err := stmt.Exec(
			r.SessionID, status, r.Model, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			r.PromptTokens, r.CompletionTokens, r.TotalTokens,
			r.Cost, r.MessageCount, syncedAt,
		); err != nil {
			return 0, fmt.Errorf("upsert session %s: %w", r.SessionID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// List returns up to limit records, most recently active first. A
// non-positive limit returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectColumns+`
		ORDER BY COALESCE(NULLIF(updated_at, ''), created_at) DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return scanRecords(rows)
}

// Get returns the record for sessionID, or sql.ErrNoRows.
func (s *Store) Get(sessionID string) (Record, error) {
	rows, err := s.db.Query(selectColumns+` WHERE session_id = ?`, sessionID)
	if err != nil {
		return Record{}, fmt.Errorf("get session: %w", err)
	}
	records, err := scanRecords(rows)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, sql.ErrNoRows
	}
	return records[0], nil
}

// Summary aggregates every stored record.
func (s *Store) Summary() (Summary, error) {
	records, err := s.List(0)
	if err != nil {
		return Summary{}, err
	}
	return AggregateRecords(records), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var createdAt, updatedAt, syncedAt string
		if err := rows.Scan(
			&r.ID, &r.SessionID, &r.Status, &r.Model, &createdAt, &updatedAt,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens,
			&r.Cost, &r.MessageCount, &syncedAt,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		r.SyncedAt = parseTime(syncedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// timeLayout has fixed-width fractional seconds so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// formatTime stores zero times as "", which sorts before any real time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
