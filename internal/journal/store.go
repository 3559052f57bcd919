// Package journal keeps an append-only SQLite record of every committed
// chunk, independent of the resumable progress state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"vod-archiver/internal/archive"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunk_journal (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    poll_id TEXT NOT NULL,
    target TEXT NOT NULL,
    source_url TEXT NOT NULL,
    title TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    start_minute INTEGER NOT NULL,
    duration_minute INTEGER NOT NULL,
    destination TEXT NOT NULL,
    archived_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunk_journal_target ON chunk_journal(target, chunk_index);
`

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one journal row.
type Entry struct {
	ID             int64
	PollID         string
	Target         string
	SourceURL      string
	Title          string
	ChunkIndex     int
	StartMinute    int
	DurationMinute int
	Destination    string
	ArchivedAt     string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record implements archive.ChunkJournal.
func (s *Store) Record(ctx context.Context, rec archive.ChunkRecord) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO chunk_journal (
            poll_id, target, source_url, title, chunk_index,
            start_minute, duration_minute, destination, archived_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PollID,
		rec.Target,
		rec.SourceURL,
		rec.Title,
		rec.ChunkIndex,
		rec.StartMinute,
		rec.DurationMinute,
		rec.Destination,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, poll_id, target, source_url, title, chunk_index,
                start_minute, duration_minute, destination, archived_at
         FROM chunk_journal ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.PollID, &e.Target, &e.SourceURL, &e.Title, &e.ChunkIndex,
			&e.StartMinute, &e.DurationMinute, &e.Destination, &e.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
