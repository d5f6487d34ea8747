// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides session/message persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversation_sessions (
			id TEXT PRIMARY KEY,
			contact_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_contact_id
			ON conversation_sessions(contact_id);

		CREATE TABLE IF NOT EXISTS conversation_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			message_text TEXT NOT NULL,
			request_id TEXT,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES conversation_sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session_id
			ON conversation_messages(session_id);

		CREATE INDEX IF NOT EXISTS idx_messages_session_created
			ON conversation_messages(session_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session row.
// Returns ErrDuplicateSession when the contact already has a session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO conversation_sessions (id, contact_id, mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.ContactID,
		string(session.Mode),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		// Check for UNIQUE constraint violation on contact_id
		if isConstraintViolation(err) {
			return ErrDuplicateSession
		}
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", session.ID, "contact_id", session.ContactID, "mode", session.Mode)
	return nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// FindSessionByContact retrieves the session owned by a contact.
// Returns ErrNotFound if the contact has no session yet.
func (s *SQLiteStore) FindSessionByContact(ctx context.Context, contactID string) (*Session, error) {
	query := `
		SELECT id, contact_id, mode, created_at, updated_at
		FROM conversation_sessions
		WHERE contact_id = ?
	`

	var session Session
	var mode string
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, contactID).Scan(
		&session.ID,
		&session.ContactID,
		&mode,
		&createdAtStr,
		&updatedAtStr,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session.Mode = Mode(mode)

	session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	session.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &session, nil
}

// UpdateSession updates mode and updated_at for an existing session.
// Returns ErrNotFound if the session doesn't exist.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *Session) error {
	query := `
		UPDATE conversation_sessions
		SET mode = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		string(session.Mode),
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated session", "id", session.ID, "mode", session.Mode)
	return nil
}

// SaveMessage appends a message to a session's history.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO conversation_messages (id, session_id, direction, message_text, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		string(msg.Direction),
		msg.Text,
		nullString(msg.RequestID),
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	s.logger.Debug("saved message", "id", msg.ID, "session_id", msg.SessionID, "direction", msg.Direction)
	return nil
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// RecentMessages retrieves the limit most-recent messages for a session,
// returned in chronological order (oldest first). The rowid tie-break keeps
// the ordering total when several messages share a timestamp.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Get the N most recent messages, but return them in chronological order.
	// We use a subquery to fetch the most recent N, then order ascending.
	query := `
		SELECT id, session_id, direction, message_text, request_id, created_at
		FROM (
			SELECT rowid, id, session_id, direction, message_text, request_id, created_at
			FROM conversation_messages
			WHERE session_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		var msg Message
		var direction string
		var requestID *string
		var createdAtStr string

		if err := rows.Scan(&msg.ID, &msg.SessionID, &direction, &msg.Text, &requestID, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}

		msg.Direction = Direction(direction)
		if requestID != nil {
			msg.RequestID = *requestID
		}

		msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message created_at: %w", err)
		}

		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}
