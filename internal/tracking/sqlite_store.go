package tracking

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processed_submissions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    record_id    TEXT NOT NULL,
    author       TEXT NOT NULL,
    title        TEXT NOT NULL,
    processed_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_identity
    ON processed_submissions (record_id, author);
`

// SQLiteStore keeps the ledger in a local SQLite database; useful when the
// ledger grows past what a rewritten JSON document handles comfortably.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ ports.TrackingStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database and ensures the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open tracking database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure tracking schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// IsProcessed reports whether an exact (record_id, author) match exists.
func (s *SQLiteStore) IsProcessed(ctx context.Context, recordID, author string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Select("COUNT(1)").
		From("processed_submissions").
		Where(sq.Eq{"record_id": recordID, "author": author}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return count > 0, nil
}

// Record appends one entry; duplicates are stored as-is.
func (s *SQLiteStore) Record(ctx context.Context, entry domain.TrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Insert("processed_submissions").
		Columns("record_id", "author", "title", "processed_at").
		Values(entry.RecordID, entry.Author, entry.Title, entry.ProcessedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Entries returns the ledger in insertion order.
func (s *SQLiteStore) Entries(ctx context.Context) ([]domain.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Select("record_id", "author", "title", "processed_at").
		From("processed_submissions").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TrackingEntry
	for rows.Next() {
		var entry domain.TrackingEntry
		if err := rows.Scan(&entry.RecordID, &entry.Author, &entry.Title, &entry.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

// Remove deletes every entry with the given record ID.
func (s *SQLiteStore) Remove(ctx context.Context, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Delete("processed_submissions").
		Where(sq.Eq{"record_id": recordID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear empties the ledger.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, args, err := sq.Delete("processed_submissions").ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}
