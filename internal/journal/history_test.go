package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmloop-dev/calmloop/pkg/session"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

type fakeLister struct {
	records  []*session.Record
	err      error
	gotLimit int
}

func (f *fakeLister) ListUserSessions(ctx context.Context, userID string, limit int) ([]*session.Record, error) {
	f.gotLimit = limit
	return f.records, f.err
}

func TestHistoryProviderGetRecent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.Create(ctx, &Entry{UserID: "user-1", Title: "entry", CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	lister := &fakeLister{records: []*session.Record{
		{ID: "s1", Emotion: therapy.EmotionAnxiety},
		{ID: "s2", Emotion: therapy.EmotionStress},
	}}

	snapshot, err := NewHistoryProvider(store, lister).GetRecent(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"anxiety", "stress"}, snapshot.RecentEmotions)
	assert.Equal(t, []string{id}, snapshot.RecentJournals)
	assert.Empty(t, snapshot.RecentGames)
}

func TestHistoryProviderWindowBounds(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := store.Create(ctx, &Entry{UserID: "user-1", Title: "entry", CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
	}

	lister := &fakeLister{}
	for i := 0; i < 12; i++ {
		lister.records = append(lister.records, &session.Record{Emotion: therapy.EmotionStress})
	}

	snapshot, err := NewHistoryProvider(store, lister).GetRecent(ctx, "user-1")
	require.NoError(t, err)

	// The last ten emotions, even from an over-generous lister.
	assert.Equal(t, 10, lister.gotLimit)
	assert.Len(t, snapshot.RecentEmotions, 10)
	assert.Len(t, snapshot.RecentJournals, 5)
}

func TestHistoryProviderMemoryOnlySessions(t *testing.T) {
	store := NewMemoryStore()

	snapshot, err := NewHistoryProvider(store, nil).GetRecent(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, snapshot.RecentEmotions)
	assert.Empty(t, snapshot.RecentJournals)
}

func TestHistoryProviderListerFailure(t *testing.T) {
	store := NewMemoryStore()
	lister := &fakeLister{err: errors.New("redis down")}

	_, err := NewHistoryProvider(store, lister).GetRecent(context.Background(), "user-1")
	assert.Error(t, err)
}
