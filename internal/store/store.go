// Package store persists the status cache and the remote-rule set
// between daemon sessions.
//
// The store is an embedded SQLite database (ncruces/go-sqlite3) opened
// in WAL mode. On startup the daemon loads the last snapshot so callers
// see last-known status immediately instead of a cold cache; on
// shutdown it writes the current snapshot back.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/KingArtGames/uversioncontrol/internal/status"
)

// Store wraps the snapshot database connection.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the snapshot database at the given path.
// The caller must Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS status_entries (
	path            TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	remote_status   TEXT NOT NULL,
	reflection      INTEGER NOT NULL,
	lock_owner      TEXT NOT NULL DEFAULT '',
	locked_by_other INTEGER NOT NULL DEFAULT 0,
	changelist      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS remote_rules (
	path TEXT PRIMARY KEY
);
`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize store schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot replaces the persisted snapshot with the given entries.
// A reflection of Pending is demoted to None: an in-flight query is not
// a fact worth persisting.
func (s *Store) SaveSnapshot(entries map[string]status.Entry) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM status_entries"); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
INSERT INTO status_entries
	(path, status, remote_status, reflection, lock_owner, locked_by_other, changelist)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		reflection := entry.Reflection
		if reflection == status.ReflectionPending {
			reflection = status.ReflectionNone
		}
		st := entry.Status
		if st == status.StatusPending {
			st = status.StatusNone
		}

		lockedByOther := 0
		if entry.LockedByOther {
			lockedByOther = 1
		}

		if _, err := stmt.Exec(entry.Path, string(st), string(entry.RemoteStatus),
			int(reflection), entry.LockOwner, lockedByOther, entry.Changelist); err != nil {
			return fmt.Errorf("failed to persist entry %s: %w", entry.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted entries, keyed by path.
func (s *Store) LoadSnapshot() (map[string]status.Entry, error) {
	rows, err := s.conn.Query(`
SELECT path, status, remote_status, reflection, lock_owner, locked_by_other, changelist
FROM status_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]status.Entry)
	for rows.Next() {
		var entry status.Entry
		var st, remoteSt string
		var reflection, lockedByOther int

		if err := rows.Scan(&entry.Path, &st, &remoteSt, &reflection,
			&entry.LockOwner, &lockedByOther, &entry.Changelist); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		entry.Status = status.FileStatus(st)
		entry.RemoteStatus = status.FileStatus(remoteSt)
		entry.Reflection = status.Reflection(reflection)
		entry.LockedByOther = lockedByOther != 0
		entries[entry.Path] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return entries, nil
}

// SaveRemoteRules replaces the persisted remote-rule set.
func (s *Store) SaveRemoteRules(paths []string) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rules transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM remote_rules"); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	for _, path := range paths {
		if _, err := tx.Exec("INSERT INTO remote_rules (path) VALUES (?)", path); err != nil {
			return fmt.Errorf("failed to persist rule %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rules: %w", err)
	}
	return nil
}

// LoadRemoteRules returns the persisted remote-rule paths.
func (s *Store) LoadRemoteRules() ([]string, error) {
	rows, err := s.conn.Query("SELECT path FROM remote_rules")
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	return paths, nil
}
