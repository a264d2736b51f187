package session

import (
	"context"
	"errors"
	"testing"

	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

// flakyStore fails appends after a set number of successes.
type flakyStore struct {
	*RedisStore
	appendsLeft int
}

func (f *flakyStore) AppendEntry(ctx context.Context, sessionID string, entry Entry) error {
	if f.appendsLeft <= 0 {
		return errors.New("durable append failed")
	}
	f.appendsLeft--
	return f.RedisStore.AppendEntry(ctx, sessionID, entry)
}

func TestConversationStoreMemoryFirst(t *testing.T) {
	store := NewConversationStore(nil)
	ctx := context.Background()

	rec := testRecord("sess-1", "user-1")
	store.Seed(ctx, rec)

	entry := store.Append(ctx, rec, RoleUser, "hello", nil)
	if entry.ID == "" {
		t.Error("expected generated entry ID")
	}
	if len(rec.Log) != 1 || rec.Log[0].Text != "hello" {
		t.Errorf("entry not applied to record: %+v", rec.Log)
	}
	if rec.Meta.TotalMessages != 1 || rec.Meta.UserMessages != 1 {
		t.Errorf("counters not updated: %+v", rec.Meta)
	}

	store.Append(ctx, rec, RoleAssistant, "hi there", nil)
	if rec.Meta.AssistantMessages != 1 || rec.Meta.TotalMessages != 2 {
		t.Errorf("assistant counters not updated: %+v", rec.Meta)
	}

	if !store.Degraded("sess-1") {
		t.Error("nil durable tier must report degraded")
	}
}

func TestConversationStoreDegradesMidSession(t *testing.T) {
	_, redisStore := setupMiniredis(t)
	flaky := &flakyStore{RedisStore: redisStore, appendsLeft: 1}
	store := NewConversationStore(flaky)
	ctx := context.Background()

	rec := testRecord("sess-1", "user-1")
	store.Seed(ctx, rec)

	// First append mirrors durably, second trips the failure.
	store.Append(ctx, rec, RoleUser, "first", nil)
	if store.Degraded("sess-1") {
		t.Fatal("session degraded too early")
	}
	store.Append(ctx, rec, RoleUser, "second", nil)
	if !store.Degraded("sess-1") {
		t.Fatal("expected session degraded after durable failure")
	}

	// Memory keeps the full log; the durable tier stopped at the failure.
	if len(rec.Log) != 2 {
		t.Errorf("expected 2 entries in memory, got %d", len(rec.Log))
	}
	durable, err := redisStore.LoadEntries(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadEntries failed: %v", err)
	}
	if len(durable) != 1 {
		t.Errorf("expected 1 durable entry, got %d", len(durable))
	}

	// Degradation is per session.
	if store.Degraded("sess-2") {
		t.Error("other session must not be degraded")
	}

	// Forget clears the flag once the session leaves the active set.
	store.Forget("sess-1")
	if store.Degraded("sess-1") {
		t.Error("expected degradation flag cleared after Forget")
	}
}

func TestConversationStoreLoad(t *testing.T) {
	_, redisStore := setupMiniredis(t)
	store := NewConversationStore(redisStore)
	ctx := context.Background()

	rec := testRecord("sess-1", "user-1")
	rec.Log = []Entry{{ID: "e1", Role: RoleAssistant, Text: "welcome"}}
	store.Seed(ctx, rec)
	store.Append(ctx, rec, RoleUser, "hello", nil)

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Emotion != therapy.EmotionAnxiety {
		t.Errorf("unexpected emotion: %s", loaded.Emotion)
	}
	if len(loaded.Log) != 2 {
		t.Errorf("expected 2 entries, got %d", len(loaded.Log))
	}

	if _, err := store.Load(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConversationStoreMemoryOnlyLoad(t *testing.T) {
	store := NewConversationStore(nil)

	if _, err := store.Load(context.Background(), "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	sessions, err := store.ListUser(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("ListUser failed: %v", err)
	}
	if sessions != nil {
		t.Errorf("expected nil session list, got %v", sessions)
	}
}
