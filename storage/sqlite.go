// SQLite transcript archive.
//
// Information Hiding:
// - SQLite connection management hidden behind methods
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling
//
// The archive is append-only and read by the web panel; the in-memory
// Conversations store remains the only source of generation context.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TranscriptEntry is one archived turn.
type TranscriptEntry struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptArchive implements TranscriptRecorder on a SQLite file.
type TranscriptArchive struct {
	db *sql.DB
}

// OpenTranscriptArchive opens or creates a SQLite database at the given
// path. Creates parent directories if they don't exist.
func OpenTranscriptArchive(path string) (*TranscriptArchive, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	archive := &TranscriptArchive{db: db}
	if err := archive.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return archive, nil
}

// NewTranscriptArchiveInMemory creates an in-memory archive (useful for testing).
func NewTranscriptArchiveInMemory() (*TranscriptArchive, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	archive := &TranscriptArchive{db: db}
	if err := archive.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return archive, nil
}

// Close closes the database connection.
func (a *TranscriptArchive) Close() error {
	return a.db.Close()
}

func (a *TranscriptArchive) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transcripts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_transcripts_chat
			ON transcripts(chat_id, id);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Record appends one turn to the archive.
func (a *TranscriptArchive) Record(ctx context.Context, chatID int64, role, text string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO transcripts (chat_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		chatID, role, text, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record transcript turn: %w", err)
	}
	return nil
}

// List returns up to limit archived turns for a chat, oldest first.
func (a *TranscriptArchive) List(ctx context.Context, chatID int64, limit int) ([]TranscriptEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, chat_id, role, text, created_at
		 FROM transcripts WHERE chat_id = ? ORDER BY id LIMIT ?`,
		chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	entries := []TranscriptEntry{}
	for rows.Next() {
		var entry TranscriptEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.ChatID, &entry.Role, &entry.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcript row: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Chats returns the distinct chat ids present in the archive.
func (a *TranscriptArchive) Chats(ctx context.Context) ([]int64, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT DISTINCT chat_id FROM transcripts ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	chats := []int64{}
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("failed to scan chat id: %w", err)
		}
		chats = append(chats, chatID)
	}
	return chats, rows.Err()
}

// Verify TranscriptArchive implements TranscriptRecorder
var _ TranscriptRecorder = (*TranscriptArchive)(nil)
