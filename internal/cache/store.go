// Package cache persists fetched activity batches in SQLite so mining can
// run again without hitting MineContext, and so a stale batch can stand in
// when MineContext is down.
//
// A batch is keyed by the local calendar day it was fetched on and the
// lookback window (in days) it covers.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Sources recorded with a batch.
const (
	SourceMineContext = "minecontext"
	SourceSamples     = "samples"
)

const (
	// dayLayout formats the day key (YYYYMMDD).
	dayLayout = "20060102"
	// stampLayout is fixed-width so fetched_at sorts lexically.
	stampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is a cached activity batch.
type Entry struct {
	Day        string              `json:"day"`
	Days       int                 `json:"days"`
	Source     string              `json:"source"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Activities []activity.Activity `json:"activities"`
}

// FreshWithin reports whether the batch was fetched within the last days days.
func (e *Entry) FreshWithin(days int) bool {
	cutoff := timeNow().Add(-time.Duration(days) * 24 * time.Hour)
	return !e.FetchedAt.Before(cutoff)
}

// EntryInfo summarises a batch without its payload.
type EntryInfo struct {
	Day       string    `json:"day"`
	Days      int       `json:"days"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Count     int       `json:"count"`
}

// Config holds cache store configuration.
type Config struct {
	// Path is the SQLite file. Its directory is created if needed.
	Path string
}

// DayKey returns the cache day key for t.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// Today returns the day key for the current local date.
func Today() string {
	return DayKey(timeNow())
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed activity cache.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the cache database with WAL mode and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("cache: create data dir: %w", err)
	}

	db, err := openDB("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS batches (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			day        TEXT    NOT NULL,
			days       INTEGER NOT NULL,
			source     TEXT    NOT NULL,
			fetched_at TEXT    NOT NULL,
			UNIQUE (day, days)
		);

		CREATE TABLE IF NOT EXISTS batch_activities (
			batch_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			payload  TEXT    NOT NULL,
			PRIMARY KEY (batch_id, position),
			FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_batches_day ON batches(day);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Batches ─────────────────────────────────────────────────────────────────

// Put stores acts as today's batch for a days-long window, replacing any
// batch already stored under the same key.
func (s *Store) Put(days int, source string, acts []activity.Activity) error {
	now := timeNow()
	day := DayKey(now)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`DELETE FROM batch_activities WHERE batch_id IN (SELECT id FROM batches WHERE day = ? AND days = ?)`,
		day, days,
	); err != nil {
		return fmt.Errorf("cache: replace batch: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM batches WHERE day = ? AND days = ?`, day, days); err != nil {
		return fmt.Errorf("cache: replace batch: %w", err)
	}
	res, err := tx.Exec(
		`INSERT INTO batches (day, days, source, fetched_at) VALUES (?, ?, ?, ?)`,
		day, days, source, now.UTC().Format(stampLayout),
	)
	if err != nil {
		return fmt.Errorf("cache: insert batch: %w", err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("cache: batch id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO batch_activities (batch_id, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cache: prepare: %w", err)
	}
	defer stmt.Close()
	for i, a := range acts {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("cache: encode activity %d: %w", i, err)
		}
		if _, err := stmt.Exec(batchID, i, string(payload)); err != nil {
			return fmt.Errorf("cache: insert activity %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache: commit: %w", err)
	}
	return nil
}

// Get returns the batch stored under (day, days), or nil when there is none.
func (s *Store) Get(day string, days int) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, day, days, source, fetched_at FROM batches WHERE day = ? AND days = ?`,
		day, days,
	)
	return s.load(row)
}

// LatestForDay returns the most recently fetched batch of day for any
// window, or nil when there is none.
func (s *Store) LatestForDay(day string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, day, days, source, fetched_at FROM batches
		 WHERE day = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`,
		day,
	)
	return s.load(row)
}

func (s *Store) load(row *sql.Row) (*Entry, error) {
	var (
		id        int64
		e         Entry
		fetchedAt string
	)
	if err := row.Scan(&id, &e.Day, &e.Days, &e.Source, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("cache: read batch: %w", err)
	}
	t, err := time.Parse(stampLayout, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("cache: parse fetched_at %q: %w", fetchedAt, err)
	}
	e.FetchedAt = t

	rows, err := s.db.Query(
		`SELECT payload FROM batch_activities WHERE batch_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("cache: read activities: %w", err)
	}
	defer rows.Close()

	e.Activities = []activity.Activity{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("cache: scan activity: %w", err)
		}
		var a activity.Activity
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("cache: decode activity: %w", err)
		}
		e.Activities = append(e.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cache: iterate activities: %w", err)
	}
	return &e, nil
}

// List returns every cached batch, newest first.
func (s *Store) List() ([]EntryInfo, error) {
	rows, err := s.db.Query(`
		SELECT b.day, b.days, b.source, b.fetched_at, COUNT(a.position)
		FROM batches b
		LEFT JOIN batch_activities a ON a.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.fetched_at DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	defer rows.Close()

	out := []EntryInfo{}
	for rows.Next() {
		var (
			info      EntryInfo
			fetchedAt string
		)
		if err := rows.Scan(&info.Day, &info.Days, &info.Source, &fetchedAt, &info.Count); err != nil {
			return nil, fmt.Errorf("cache: scan: %w", err)
		}
		if t, err := time.Parse(stampLayout, fetchedAt); err == nil {
			info.FetchedAt = t
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Clear removes every cached batch and returns how many were removed.
func (s *Store) Clear() (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("cache: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM batch_activities`); err != nil {
		return 0, fmt.Errorf("cache: clear activities: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM batches`)
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cache: commit: %w", err)
	}
	return int(n), nil
}
