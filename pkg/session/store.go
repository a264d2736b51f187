package session

import (
	"context"
	"errors"
)

// Common errors for registry and storage operations.
var (
	// ErrSessionNotFound is returned for operations on an unknown or
	// already-ended session. Callers should present it as "session expired".
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExists is returned when initializing an ID that is already
	// active.
	ErrSessionExists = errors.New("session already active")
	// ErrStorageClosed is returned when operating on a closed durable store.
	ErrStorageClosed = errors.New("durable store is closed")
)

// DurableStore is the durable tier of the conversation store.
// Implementations must be safe for concurrent use. Durable writes are
// best-effort mirrors of the in-memory record; a failing store degrades the
// affected session to memory-only, it never fails the session.
type DurableStore interface {
	// SaveSession creates or updates the session record (log excluded;
	// entries travel through AppendEntry).
	SaveSession(ctx context.Context, rec *Record) error

	// LoadSession retrieves a session record by ID, without its log.
	// Returns ErrSessionNotFound if the session was never durably written.
	LoadSession(ctx context.Context, sessionID string) (*Record, error)

	// AppendEntry appends one conversation entry (append-only).
	AppendEntry(ctx context.Context, sessionID string, entry Entry) error

	// LoadEntries retrieves all entries for a session in append order.
	LoadEntries(ctx context.Context, sessionID string) ([]Entry, error)

	// ListUserSessions returns a user's sessions, most recent first.
	ListUserSessions(ctx context.Context, userID string, limit int) ([]*Record, error)

	// DeleteSession removes a session and its entries.
	DeleteSession(ctx context.Context, sessionID string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
