package internal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a BlobStore backed by a single SQLite database file,
// one row per transcript.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the transcript database
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Key: path, Op: "open", Err: fmt.Errorf("failed to open database: %w", err)}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Key: path, Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	const schema = `CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &StorageError{Key: path, Op: "open", Err: fmt.Errorf("failed to create schema: %w", err)}
	}

	return &SQLiteStore{db: db}, nil
}

// Read returns the stored transcript content, or ErrBlobNotFound
func (s *SQLiteStore) Read(ctx context.Context, key string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, "SELECT content FROM transcripts WHERE id = ?", key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &StorageError{Key: key, Op: "read", Err: ErrBlobNotFound}
	}
	if err != nil {
		return "", &StorageError{Key: key, Op: "read", Err: err}
	}
	return content, nil
}

// Write overwrites the stored transcript in full
func (s *SQLiteStore) Write(ctx context.Context, key, content string) error {
	const query = `INSERT INTO transcripts (id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, content, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return &StorageError{Key: key, Op: "write", Err: err}
	}
	return nil
}

// List returns all stored transcripts, newest first
func (s *SQLiteStore) List(ctx context.Context) ([]BlobInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, length(content), updated_at FROM transcripts ORDER BY updated_at DESC")
	if err != nil {
		return nil, &StorageError{Key: "transcripts", Op: "list", Err: err}
	}
	defer rows.Close()

	var infos []BlobInfo
	for rows.Next() {
		var info BlobInfo
		var updatedAt string
		if err := rows.Scan(&info.Key, &info.Size, &updatedAt); err != nil {
			return nil, &StorageError{Key: "transcripts", Op: "list", Err: err}
		}
		if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			info.ModTime = ts
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Key: "transcripts", Op: "list", Err: err}
	}
	return infos, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
