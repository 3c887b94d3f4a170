// Package store provides sqlite persistence for shows, episodes, the
// playback queue, and user settings.
package store

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// ErrNotFound is returned when a referenced show, episode, or queue item
// does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps a sqlite connection pool. It is safe for concurrent use;
// busy_timeout covers writer contention.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the database at path and migrates
// the schema. The pragmas ride on the DSN so they apply to every pooled
// connection.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)", path)

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		show_id INTEGER NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		audio_type TEXT NOT NULL DEFAULT 'audio/mpeg',
		publish_date INTEGER NOT NULL,
		is_played INTEGER NOT NULL DEFAULT 0,
		duration INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE (show_id, url)
	);

	CREATE TABLE IF NOT EXISTS queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		episode_id INTEGER NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_episodes_show ON episodes(show_id);
	CREATE INDEX IF NOT EXISTS idx_queue_position ON queue(position);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
