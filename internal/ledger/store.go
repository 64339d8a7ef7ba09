package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one persisted record of a completed video.
type Entry struct {
	VideoID     string
	URL         string
	Title       string
	ProcessedAt time.Time
	FileSizeKB  float64
}

// Store manages ledger persistence backed by SQLite. Every public method
// takes the store mutex for the duration of one transaction; callers must not
// hold it across external-process waits.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the video id has a ledger entry.
func (s *Store) Exists(ctx context.Context, videoID string) (bool, error) {
	if videoID == "" {
		return false, errors.New("video id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var found int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM processed_videos WHERE video_id = ?", videoID,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return true, nil
}

// Upsert records a completed video, replacing any prior entry for the id.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	if entry.VideoID == "" {
		return errors.New("video id required")
	}
	if entry.URL == "" {
		return errors.New("source url required")
	}
	processedAt := entry.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO processed_videos (video_id, url, title, processed_at, file_size_kb)
         VALUES (?, ?, ?, ?, ?)`,
		entry.VideoID,
		entry.URL,
		entry.Title,
		processedAt.Format(time.RFC3339),
		entry.FileSizeKB,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	return nil
}

// Get returns the entry for a video id, or nil when absent.
func (s *Store) Get(ctx context.Context, videoID string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT video_id, url, title, processed_at, file_size_kb
         FROM processed_videos WHERE video_id = ?`, videoID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns all entries ordered by processing time, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT video_id, url, title, processed_at, file_size_kb
         FROM processed_videos ORDER BY processed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

// Count returns the number of ledger entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processed_videos").Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var title sql.NullString
	var processedAt string
	var sizeKB sql.NullFloat64
	if err := row.Scan(&entry.VideoID, &entry.URL, &title, &processedAt, &sizeKB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	entry.Title = title.String
	entry.FileSizeKB = sizeKB.Float64
	if ts, err := time.Parse(time.RFC3339, processedAt); err == nil {
		entry.ProcessedAt = ts
	}
	return &entry, nil
}
