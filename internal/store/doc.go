// Package store provides persistent storage for the orchestrator using SQLite.
//
// # Data Models
//
//   - Session: per-contact conversation state holding the responding mode.
//     Exactly one session exists per contact id (UNIQUE constraint).
//   - Message: append-only history entry (IN/OUT) belonging to one session.
//     Messages are immutable once written.
//
// # Interfaces
//
// The package exposes two narrow interfaces so the service layer can depend on
// exactly what it needs:
//
//   - SessionStore: FindSessionByContact / CreateSession / UpdateSession
//   - HistoryStore: SaveMessage / RecentMessages
//
// SQLiteStore implements both in a single struct.
//
// # Ordering
//
// RecentMessages fetches the N most-recent messages (created_at descending) and
// re-orders them oldest first before returning. Callers always receive
// chronological order.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrDuplicateSession: Contact already has a session
//
// Storage failures are never retried at this layer; they propagate to the
// caller wrapped with context. All methods accept context.Context.
package store
