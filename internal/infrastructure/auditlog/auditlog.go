// Package auditlog keeps a trail of auth events in an embedded sqlite
// database. The portal must keep working with no reachable backend, so the
// trail lives next to the local credential store instead of a server-side
// database.
package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id    TEXT,
  email      TEXT,
  action     TEXT NOT NULL,
  ip         TEXT,
  user_agent TEXT,
  metadata   TEXT,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_user_id ON audit_log(user_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_action  ON audit_log(action);
`

// Event is one recorded auth action.
type Event struct {
	ID        int64
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Store appends and reads audit events.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditlog: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Insert appends one event. Metadata is stored as JSON.
func (s *Store) Insert(ctx context.Context, e Event) error {
	var md []byte
	if len(e.Metadata) > 0 {
		var err error
		md, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("auditlog: encode metadata: %w", err)
		}
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (user_id, email, action, ip, user_agent, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.UserID, e.Email, e.Action, e.IP, e.UserAgent, string(md), created.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("auditlog: insert: %w", err)
	}
	return nil
}

// Recent returns the latest events for a user, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, email, action, ip, user_agent, metadata, created_at
		FROM audit_log
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			md      sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email, &e.Action, &e.IP, &e.UserAgent, &md, &created); err != nil {
			return nil, fmt.Errorf("auditlog: scan: %w", err)
		}
		if md.Valid && md.String != "" {
			_ = json.Unmarshal([]byte(md.String), &e.Metadata)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
