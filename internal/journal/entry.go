// Package journal derives the post-session journal artifact: a summarized,
// sentiment- and theme-tagged entry persisted when a therapeutic session
// ends. Entries are created once by the finalizer and never mutated.
package journal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrEntryNotFound is returned when a journal entry doesn't exist.
var ErrEntryNotFound = errors.New("journal entry not found")

// Meta carries the session-derived analysis attached to an entry.
type Meta struct {
	// SessionID links back to the originating session.
	SessionID string `json:"sessionId" firestore:"sessionId"`
	// Duration is the session length.
	Duration time.Duration `json:"duration" firestore:"duration"`
	// Techniques are the techniques recommended during the session.
	Techniques []string `json:"techniques" firestore:"techniques"`
	// RawLogRef points at the durable transcript, when one exists.
	RawLogRef string `json:"rawLogRef,omitempty" firestore:"rawLogRef,omitempty"`
	// Sentiment is "positive", "negative" or "neutral".
	Sentiment string `json:"sentiment" firestore:"sentiment"`
	// Themes are the detected key themes (set semantics, sorted).
	Themes []string `json:"themes" firestore:"themes"`
	// Insights are the generated observations, in rule order.
	Insights []string `json:"insights" firestore:"insights"`
	// ModelUsed is the model that served the session.
	ModelUsed string `json:"modelUsed" firestore:"modelUsed"`
}

// Entry is the derived journal artifact.
type Entry struct {
	ID        string    `json:"id" firestore:"-"`
	UserID    string    `json:"userId" firestore:"userId"`
	Title     string    `json:"title" firestore:"title"`
	Content   string    `json:"content" firestore:"content"`
	Mood      int       `json:"mood" firestore:"mood"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	Meta      Meta      `json:"meta" firestore:"meta"`
}

// Store persists journal entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Create persists a new entry and returns its ID.
	Create(ctx context.Context, entry *Entry) (string, error)

	// Get retrieves an entry by ID. Returns ErrEntryNotFound if absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// ListByUser returns a user's entries, most recent first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Create persists a new entry and returns its generated ID.
func (s *MemoryStore) Create(ctx context.Context, entry *Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()

	stored := *entry
	stored.ID = id
	s.entries[id] = &stored

	return id, nil
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	out := *entry
	return &out, nil
}

// ListByUser returns a user's entries, most recent first.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Entry, 0)
	for _, entry := range s.entries {
		if entry.UserID == userID {
			e := *entry
			out = append(out, &e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}
