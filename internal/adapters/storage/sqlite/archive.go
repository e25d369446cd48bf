// Package sqlite archives finalized sessions into a local database so past
// recordings stay queryable after the JSON artifacts are shipped elsewhere.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"webtrace/internal/domain"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

type Archive struct {
	db *sql.DB
}

func NewArchive(path string) (*Archive, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions(
	  id          TEXT PRIMARY KEY,
	  tag         TEXT NOT NULL,
	  start_time  INTEGER NOT NULL,
	  end_time    INTEGER,
	  start_url   TEXT NOT NULL,
	  root_domain TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS events(
	  id         INTEGER PRIMARY KEY,
	  session_id TEXT NOT NULL REFERENCES sessions(id),
	  ts         INTEGER NOT NULL,
	  type       TEXT NOT NULL CHECK (type IN ('interaction','network')),
	  body_json  TEXT NOT NULL CHECK (json_valid(body_json))
	);
	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
	CREATE INDEX IF NOT EXISTS idx_events_ts      ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_type    ON events(type);
	`)
	if err != nil {
		return fmt.Errorf("archive: create tables: %w", err)
	}
	return nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveSession stores a finalized session and its events in one transaction.
func (a *Archive) SaveSession(ctx context.Context, sess domain.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("archive: session has no id")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions(id, tag, start_time, end_time, start_url, root_domain) VALUES(?,?,?,?,?,?)`,
		sess.ID, sess.Tag, sess.StartTime, sess.EndTime, sess.StartURL, sess.RootDomain,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive: insert session: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events(session_id, ts, type, body_json) VALUES(?,?,?,json(?))`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive: prepare statement: %w", err)
	}
	defer stmt.Close()
	for _, ev := range sess.Events {
		body, err := json.Marshal(ev)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archive: marshal event: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, sess.ID, ev.OccurredAt(), ev.EventType(), string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archive: insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// CountEvents returns how many events a stored session has, by type.
func (a *Archive) CountEvents(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM events WHERE session_id = ? GROUP BY type`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("archive: count events: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int, 2)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("archive: scan count: %w", err)
		}
		out[typ] = n
	}
	return out, rows.Err()
}
