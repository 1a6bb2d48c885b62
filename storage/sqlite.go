// Package storage provides SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timestampFormat is RFC 3339 with a fixed-width nanosecond fraction.
// Timestamps are compared as TEXT in ORDER BY, so the fraction must not be
// trimmed: with variable-width fractions, "…00.12Z" would sort after
// "…00.125Z" because 'Z' > '5'.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SqliteStore implements ConversationStore using a SQLite database file.
// Safe to construct repeatedly against the same file: schema creation is
// idempotent and never drops existing history.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storageErr("open", fmt.Errorf("failed to create database directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("failed to open SQLite database: %w", err))
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, storageErr("open", fmt.Errorf("failed to create in-memory SQLite: %w", err))
	}
	// Each pooled connection would otherwise get its own private in-memory
	// database, hiding the schema from all but the first.
	db.SetMaxOpenConns(1)

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	// AUTOINCREMENT keeps ids strictly increasing and never reused, even
	// after rows are deleted by Clear.
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			model TEXT NOT NULL,
			user_message TEXT NOT NULL,
			ai_response TEXT,
			session TEXT NOT NULL DEFAULT 'Default'
		);

		CREATE INDEX IF NOT EXISTS idx_conversations_session_timestamp
		ON conversations(session, timestamp DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return storageErr("init", fmt.Errorf("failed to create schema: %w", err))
	}

	return s.migrateSessionColumn()
}

// migrateSessionColumn adds the session column to a table created before
// sessions existed. Pre-session rows land in the default session.
func (s *SqliteStore) migrateSessionColumn() error {
	var hasSession int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('conversations') WHERE name = 'session'`,
	).Scan(&hasSession)
	if err != nil {
		return storageErr("init", fmt.Errorf("failed to inspect schema: %w", err))
	}

	if hasSession == 0 {
		_, err = s.db.Exec(`ALTER TABLE conversations ADD COLUMN session TEXT NOT NULL DEFAULT 'Default'`)
		if err != nil {
			return storageErr("init", fmt.Errorf("failed to add session column: %w", err))
		}
	}
	return nil
}

// Append inserts one new turn. The id and timestamp are assigned here, not
// by the caller.
func (s *SqliteStore) Append(ctx context.Context, model, userMessage string, aiResponse *string, session string) error {
	if session == "" {
		session = DefaultSession
	}

	var response interface{}
	if aiResponse != nil {
		response = *aiResponse
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (timestamp, model, user_message, ai_response, session)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().Format(timestampFormat),
		model,
		userMessage,
		response,
		session,
	)
	if err != nil {
		return storageErr("append", fmt.Errorf("failed to insert turn: %w", err))
	}
	return nil
}

// Recent returns at most limit turns for session, newest first.
// limit <= 0 returns an empty slice.
func (s *SqliteStore) Recent(ctx context.Context, session string, limit int) ([]Turn, error) {
	if session == "" {
		session = DefaultSession
	}
	if limit <= 0 {
		return []Turn{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, model, user_message, ai_response, session
		FROM conversations
		WHERE session = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`,
		session, limit)
	if err != nil {
		return nil, storageErr("recent", fmt.Errorf("failed to query turns: %w", err))
	}
	defer rows.Close()

	return scanTurns(rows, "recent")
}

// Search returns all turns in session whose user message or AI response
// contains query as a substring, newest first. SQLite LIKE is
// case-insensitive for ASCII, which is the documented matching behavior.
// An empty query matches every turn in the session.
func (s *SqliteStore) Search(ctx context.Context, query, session string) ([]Turn, error) {
	if session == "" {
		session = DefaultSession
	}

	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, model, user_message, ai_response, session
		FROM conversations
		WHERE session = ? AND (
			user_message LIKE ? OR
			ai_response LIKE ?
		)
		ORDER BY timestamp DESC, id DESC`,
		session, pattern, pattern)
	if err != nil {
		return nil, storageErr("search", fmt.Errorf("failed to query turns: %w", err))
	}
	defer rows.Close()

	return scanTurns(rows, "search")
}

// Clear deletes every turn across all sessions. Idempotent: clearing an
// empty store succeeds.
func (s *SqliteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations"); err != nil {
		return storageErr("clear", fmt.Errorf("failed to delete turns: %w", err))
	}
	return nil
}

// ClearSession deletes every turn in one session. Idempotent.
func (s *SqliteStore) ClearSession(ctx context.Context, session string) error {
	if session == "" {
		session = DefaultSession
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE session = ?", session); err != nil {
		return storageErr("clear_session", fmt.Errorf("failed to delete session turns: %w", err))
	}
	return nil
}

// UserMessageByID returns the user message of the turn with the given id.
// Returns ErrNotFound if no such turn exists.
func (s *SqliteStore) UserMessageByID(ctx context.Context, id int64) (string, error) {
	var message string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_message FROM conversations WHERE id = ?",
		id).Scan(&message)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storageErr("user_message_by_id", fmt.Errorf("failed to query turn: %w", err))
	}
	return message, nil
}

// Sessions lists the distinct session labels that currently have turns,
// most recently written first.
func (s *SqliteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session FROM conversations
		GROUP BY session
		ORDER BY MAX(timestamp) DESC`)
	if err != nil {
		return nil, storageErr("sessions", fmt.Errorf("failed to query sessions: %w", err))
	}
	defer rows.Close()

	sessions := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, storageErr("sessions", fmt.Errorf("failed to scan session: %w", err))
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("sessions", fmt.Errorf("error iterating sessions: %w", err))
	}

	return sessions, nil
}

// scanTurns reads all rows from a turn query.
func scanTurns(rows *sql.Rows, op string) ([]Turn, error) {
	turns := []Turn{} // Start with empty slice, not nil
	for rows.Next() {
		var turn Turn
		var response sql.NullString
		err := rows.Scan(
			&turn.ID,
			&turn.Timestamp,
			&turn.Model,
			&turn.UserMessage,
			&response,
			&turn.Session,
		)
		if err != nil {
			return nil, storageErr(op, fmt.Errorf("failed to scan turn: %w", err))
		}
		if response.Valid {
			value := response.String
			turn.AIResponse = &value
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(op, fmt.Errorf("error iterating turns: %w", err))
	}

	return turns, nil
}

// Verify SqliteStore implements ConversationStore
var _ ConversationStore = (*SqliteStore)(nil)
