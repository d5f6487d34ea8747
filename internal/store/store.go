// ABOUTME: Store interface and data types for tagmind-orchestrator persistence
// ABOUTME: Defines Session, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSession is returned when trying to create a session for a contact
// that already has one
var ErrDuplicateSession = errors.New("session already exists")

// Mode governs whether the orchestrator responds for a session.
type Mode string

const (
	// ModeOff suppresses all replies for the session
	ModeOff Mode = "OFF"
	// ModeSuggest is the active mode: every message/tag attempts a completion
	ModeSuggest Mode = "SUGGEST"
)

// ParseMode converts a string into a Mode.
// Matching is case-insensitive; unknown values return false.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeOff:
		return ModeOff, true
	case ModeSuggest:
		return ModeSuggest, true
	default:
		return "", false
	}
}

// Direction marks who produced a message.
type Direction string

const (
	// DirectionIn is a message received from the contact
	DirectionIn Direction = "IN"
	// DirectionOut is a reply produced by the system
	DirectionOut Direction = "OUT"
)

// Session is the per-contact conversation state.
// Exactly one session exists per contact id.
type Session struct {
	ID        string
	ContactID string
	Mode      Mode
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single entry in a session's append-only history.
// Messages are immutable once created.
type Message struct {
	ID        string
	SessionID string
	Direction Direction
	Text      string
	RequestID string
	CreatedAt time.Time
}

// SessionStore defines session lifecycle persistence.
type SessionStore interface {
	// FindSessionByContact returns the session for a contact, or ErrNotFound.
	FindSessionByContact(ctx context.Context, contactID string) (*Session, error)
	// CreateSession inserts a new session. Returns ErrDuplicateSession when the
	// contact already has one (UNIQUE constraint on contact_id).
	CreateSession(ctx context.Context, session *Session) error
	// UpdateSession persists mode and updated-at changes for an existing session.
	UpdateSession(ctx context.Context, session *Session) error
}

// HistoryStore defines the append-only message log per session.
type HistoryStore interface {
	// SaveMessage appends a message to its session's history.
	SaveMessage(ctx context.Context, msg *Message) error
	// RecentMessages returns up to limit most-recent messages for a session,
	// re-ordered oldest first. Callers never see newest-first ordering.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error)
}

// Store combines session and history persistence.
type Store interface {
	SessionStore
	HistoryStore

	Close() error
}
