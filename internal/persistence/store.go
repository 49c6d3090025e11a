// Package persistence is the sqlite-backed local state for missionctl:
// UI preferences, per-task checkmarks for the daily brief, chat transcripts,
// and the activity feed. One writer at a time; WAL keeps readers unblocked.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lmagee3/missionctl/internal/shared"
)

// Preference keys with fixed meanings. Other keys are allowed; these are the
// ones the UI reads at startup.
const (
	PrefTheme        = "theme"
	PrefHiddenPanels = "hidden_panels"
)

// Message is one persisted chat turn.
type Message struct {
	ID        int64
	SessionID int64
	Role      string
	Content   string
	RouteTo   string
	CreatedAt time.Time
}

// ActivityEntry is one line of the activity feed.
type ActivityEntry struct {
	ID        int64
	Line      string
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".missionctl", "missionctl.db")
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.configurePragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) configurePragmas(ctx context.Context) error {
	pragma := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
	}
	for _, q := range pragma {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("set pragma %q: %w", q, err)
		}
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS task_checks (
			task_id TEXT PRIMARY KEY,
			checked INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			route_to TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);`,
		`CREATE TABLE IF NOT EXISTS activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			line TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return tx.Commit()
}

// retryOnBusy retries f when SQLite returns BUSY or LOCKED, with exponential
// backoff and bounded jitter on top of the driver's busy_timeout.
func retryOnBusy(ctx context.Context, maxRetries int, f func() error) error {
	const baseDelay = 50 * time.Millisecond
	const maxDelay = 500 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = f()
		if err == nil {
			return nil
		}
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt == maxRetries {
			return err
		}
		delay := baseDelay << uint(attempt)
		if delay > maxDelay {
			delay = maxDelay
		}
		jitter := time.Duration(rand.IntN(int(delay / 2)))
		delay = delay - delay/4 + jitter

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "(5)") || // SQLITE_BUSY
		strings.Contains(msg, "(6)") // SQLITE_LOCKED
}

// SetPref upserts one preference.
func (s *Store) SetPref(ctx context.Context, key, value string) error {
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP;
		`, key, value)
		return err
	})
}

// GetPref returns the stored value and whether the key exists.
func (s *Store) GetPref(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?;`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get pref %q: %w", key, err)
	}
	return value, true, nil
}

// SetTaskChecked records whether a brief task is ticked off.
func (s *Store) SetTaskChecked(ctx context.Context, taskID string, checked bool) error {
	v := 0
	if checked {
		v = 1
	}
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO task_checks (task_id, checked, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(task_id) DO UPDATE SET checked=excluded.checked, updated_at=CURRENT_TIMESTAMP;
		`, taskID, v)
		return err
	})
}

// TaskChecks returns all checkmarks keyed by task id.
func (s *Store) TaskChecks(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, checked FROM task_checks;`)
	if err != nil {
		return nil, fmt.Errorf("list task checks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		var checked int
		if err := rows.Scan(&id, &checked); err != nil {
			return nil, fmt.Errorf("scan task check: %w", err)
		}
		out[id] = checked != 0
	}
	return out, rows.Err()
}

// ClearTaskChecks drops all checkmarks. Used when the brief rolls over to a
// new day.
func (s *Store) ClearTaskChecks(ctx context.Context) error {
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM task_checks;`)
		return err
	})
}

// AppendMessage persists one chat turn and returns its row id.
func (s *Store) AppendMessage(ctx context.Context, sessionID int64, role, content, routeTo string) (int64, error) {
	var id int64
	err := retryOnBusy(ctx, 5, func() error {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO messages (session_id, role, content, route_to) VALUES (?, ?, ?, ?);
		`, sessionID, role, content, routeTo)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	return id, nil
}

// RecentMessages returns the last limit messages of a session in
// chronological order.
func (s *Store) RecentMessages(ctx context.Context, sessionID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, route_to, created_at
		FROM (
			SELECT id, session_id, role, content, route_to, created_at
			FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC;
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.RouteTo, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendActivity adds one line to the activity feed. The line is redacted
// before it touches disk.
func (s *Store) AppendActivity(ctx context.Context, line string) error {
	line = shared.Redact(line)
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO activity (line) VALUES (?);`, line)
		return err
	})
}

// RecentActivity returns the last limit activity lines, newest first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, line, created_at FROM activity ORDER BY id DESC LIMIT ?;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.Line, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
