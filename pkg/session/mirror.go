package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calmloop-dev/calmloop/pkg/observability"
)

// ConversationStore is the dual-tier transcript store. Every mutation is
// applied to the in-memory record first (authoritative), then mirrored
// best-effort to the durable tier. The first durable failure downgrades
// only that session to memory-only; the failure is logged and counted,
// never surfaced.
type ConversationStore struct {
	durable DurableStore // nil means memory-only from the start

	mu       sync.Mutex
	degraded map[string]bool
}

// NewConversationStore creates the dual-tier store. A nil durable store is
// valid and runs every session memory-only.
func NewConversationStore(durable DurableStore) *ConversationStore {
	return &ConversationStore{
		durable:  durable,
		degraded: make(map[string]bool),
	}
}

// Degraded reports whether the session has been downgraded to memory-only.
func (s *ConversationStore) Degraded(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable == nil || s.degraded[sessionID]
}

func (s *ConversationStore) downgrade(sessionID string, op string, err error) {
	s.mu.Lock()
	already := s.degraded[sessionID]
	s.degraded[sessionID] = true
	s.mu.Unlock()

	observability.RecordDurableFailure(op)
	if !already {
		log.Printf("[ConversationStore] durable %s failed for session %s, continuing memory-only: %v", op, sessionID, err)
	}
}

// Seed writes a freshly initialized record to the durable tier. The
// in-memory record is already authoritative; a durable failure only marks
// the session degraded.
func (s *ConversationStore) Seed(ctx context.Context, rec *Record) {
	if s.durable == nil || s.Degraded(rec.ID) {
		return
	}
	if err := s.durable.SaveSession(ctx, rec); err != nil {
		s.downgrade(rec.ID, "save", err)
		return
	}
	for _, e := range rec.Log {
		if err := s.durable.AppendEntry(ctx, rec.ID, e); err != nil {
			s.downgrade(rec.ID, "append", err)
			return
		}
	}
}

// Append creates a log entry, applies it to the in-memory record, and
// mirrors it to the durable tier. It returns the appended entry.
func (s *ConversationStore) Append(ctx context.Context, rec *Record, role Role, text string, audio []byte) Entry {
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Role:      role,
		Text:      text,
		Audio:     audio,
	}

	// Memory first: the registry copy is authoritative.
	rec.Log = append(rec.Log, entry)
	rec.Meta.TotalMessages++
	switch role {
	case RoleUser:
		rec.Meta.UserMessages++
	case RoleAssistant:
		rec.Meta.AssistantMessages++
	}

	if s.durable != nil && !s.Degraded(rec.ID) {
		if err := s.durable.AppendEntry(ctx, rec.ID, entry); err != nil {
			s.downgrade(rec.ID, "append", err)
		}
	}

	return entry
}

// SaveMeta mirrors the record's current metadata (status, end time,
// counters) to the durable tier.
func (s *ConversationStore) SaveMeta(ctx context.Context, rec *Record) {
	if s.durable == nil || s.Degraded(rec.ID) {
		return
	}
	if err := s.durable.SaveSession(ctx, rec); err != nil {
		s.downgrade(rec.ID, "save", err)
	}
}

// Load reads a durably persisted session, log included. Memory-only
// sessions are not recoverable here.
func (s *ConversationStore) Load(ctx context.Context, sessionID string) (*Record, error) {
	if s.durable == nil {
		return nil, ErrSessionNotFound
	}
	rec, err := s.durable.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.durable.LoadEntries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rec.Log = entries
	return rec, nil
}

// ListUser returns the user's durably persisted sessions, most recent
// first. Degraded sessions are absent here; the registry overlays its
// in-memory copies.
func (s *ConversationStore) ListUser(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if s.durable == nil {
		return nil, nil
	}
	return s.durable.ListUserSessions(ctx, userID, limit)
}

// Forget drops the per-session degradation flag once the session is gone
// from the active set.
func (s *ConversationStore) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.degraded, sessionID)
}
