package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/elongatd/internal/logger"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a thread or blog is not stored
var ErrNotFound = errors.New("not found")

// Store handles all database operations
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY on
	// concurrent imports.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: logger.Named("store")}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		author_username TEXT NOT NULL,
		author TEXT NOT NULL,
		created_at TEXT NOT NULL,
		post_count INTEGER NOT NULL,
		stored_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		text TEXT NOT NULL,
		created_at TEXT NOT NULL,
		replies INTEGER NOT NULL DEFAULT 0,
		retweets INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		bookmarks INTEGER NOT NULL DEFAULT 0,
		attachments TEXT NOT NULL,
		PRIMARY KEY (thread_id, id),
		UNIQUE (thread_id, sequence)
	);

	CREATE TABLE IF NOT EXISTS blogs (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL UNIQUE REFERENCES threads(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		summary TEXT NOT NULL,
		content TEXT NOT NULL,
		media TEXT NOT NULL,
		provider TEXT,
		model TEXT,
		input_tokens INTEGER,
		output_tokens INTEGER,
		input_cost_millicents INTEGER,
		output_cost_millicents INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_updated_at ON threads(updated_at);
	CREATE INDEX IF NOT EXISTS idx_threads_author ON threads(author_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Timestamps are stored as UTC RFC 3339 text so they sort lexically and
// reload to equal time.Time values.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// now is replaced in tests that need deterministic ordering
var now = func() time.Time { return time.Now().UTC() }
