// Package audit persists elevation lifecycle events to a local SQLite
// database. It records history only; timer state never survives a reboot.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/WhisperingChaos/sudokeep/internal/keepalive"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const defaultBusyTimeout = 5000 // milliseconds

// Event kinds recorded by the store.
const (
	KindSessionStarted = "session_started"
	KindSessionEnded   = "session_ended"
	KindRefreshOK      = "refresh_ok"
	KindRefreshFailed  = "refresh_failed"
)

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS elevation_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		pid        INTEGER NOT NULL,
		kind       TEXT    NOT NULL,
		detail     TEXT    NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_elevation_events_created ON elevation_events(created_at)`,
}

// Event is one recorded elevation event.
type Event struct {
	ID        int64
	PID       int
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// Store is a SQLite-backed event log implementing keepalive.Recorder.
// Recorder methods swallow write errors (logging them) because the
// background loop has no failure-reporting channel.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time interface guard.
var _ keepalive.Recorder = (*Store)(nil)

// Open opens (creating if needed) the audit database at path.
//
// The database is created with WAL mode, a 5 s busy timeout, and a single
// connection (SQLite serialises writes). The schema is migrated automatically.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("audit: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: enable WAL: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set busy_timeout: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("audit: migrate schema: %w", err)
		}
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionStarted implements keepalive.Recorder.
func (s *Store) SessionStarted(pid int, interval time.Duration) {
	s.record(pid, KindSessionStarted, interval.String())
}

// SessionEnded implements keepalive.Recorder.
func (s *Store) SessionEnded(pid int) {
	s.record(pid, KindSessionEnded, "")
}

// RefreshSucceeded implements keepalive.Recorder.
func (s *Store) RefreshSucceeded(pid int) {
	s.record(pid, KindRefreshOK, "")
}

// RefreshFailed implements keepalive.Recorder.
func (s *Store) RefreshFailed(pid int, err error) {
	s.record(pid, KindRefreshFailed, err.Error())
}

func (s *Store) record(pid int, kind, detail string) {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO elevation_events (pid, kind, detail, created_at)
		VALUES (?, ?, ?, ?)`,
		pid, kind, detail, s.now().UnixNano(),
	)
	if err != nil {
		s.logger.Warn("audit: recording event failed", "kind", kind, "pid", pid, "error", err)
	}
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pid, kind, detail, created_at
		FROM elevation_events
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.PID, &e.Kind, &e.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Prune deletes events older than the given age and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM elevation_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: prune events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("audit: prune events: %w", err)
	}
	return n, nil
}
