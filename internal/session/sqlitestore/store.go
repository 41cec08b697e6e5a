// Package sqlitestore implements the session store over a local SQLite
// file for single-node installs that do not run Redis.
//
// Expiry is enforced at read time: rows past their deadline resolve as not
// found and are lazily deleted.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/huddleworks/huddle/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// Store implements session.Store over SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the session database and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply sessions schema: %w", err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Lookup resolves a session key, treating expired rows as not found.
func (s *Store) Lookup(ctx context.Context, key string) (session.Session, error) {
	var payload []byte
	var expiresAt int64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM sessions WHERE key = ?`, key)
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("%w: query session: %w", session.ErrUnavailable, err)
	}

	if expiresAt > 0 && s.now().UTC().UnixMilli() >= expiresAt {
		_, _ = s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key)
		return session.Session{}, session.ErrNotFound
	}

	sess, err := session.Decode(payload)
	if err != nil {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// Put stores a session under the key. A non-positive TTL stores the session
// without a deadline.
func (s *Store) Put(ctx context.Context, key string, sess session.Session, ttl time.Duration) error {
	payload, err := session.Encode(sess)
	if err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().UTC().Add(ttl).UnixMilli()
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (key, payload, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		key, payload, expiresAt)
	if err != nil {
		return fmt.Errorf("%w: upsert session: %w", session.ErrUnavailable, err)
	}
	return nil
}

// Delete removes a session. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete session: %w", session.ErrUnavailable, err)
	}
	return nil
}
