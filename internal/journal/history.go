package journal

import (
	"context"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

// How far back the session-start snapshot looks: the last ten emotions
// and the last five journal entries.
const (
	emotionWindow = 10
	journalWindow = 5
)

// SessionLister is the slice of the durable session store the history
// provider needs.
type SessionLister interface {
	ListUserSessions(ctx context.Context, userID string, limit int) ([]*session.Record, error)
}

// HistoryProvider builds the recent-history snapshot captured at session
// start: emotions from the user's past sessions and their latest journal
// entries. It implements session.HistoryProvider.
type HistoryProvider struct {
	journal  Store
	sessions SessionLister // nil when sessions run memory-only
}

// NewHistoryProvider creates a provider reading from the journal store
// and, when available, the durable session tier.
func NewHistoryProvider(journal Store, sessions SessionLister) *HistoryProvider {
	return &HistoryProvider{journal: journal, sessions: sessions}
}

// GetRecent returns the user's recent emotions and journal entry IDs.
// A partial failure fails the whole call; the registry substitutes a
// neutral snapshot.
func (p *HistoryProvider) GetRecent(ctx context.Context, userID string) (session.HistorySnapshot, error) {
	snapshot := session.NeutralHistory()

	if p.sessions != nil {
		records, err := p.sessions.ListUserSessions(ctx, userID, emotionWindow)
		if err != nil {
			return session.HistorySnapshot{}, err
		}
		for _, rec := range records {
			snapshot.RecentEmotions = append(snapshot.RecentEmotions, string(rec.Emotion))
		}
		if len(snapshot.RecentEmotions) > emotionWindow {
			snapshot.RecentEmotions = snapshot.RecentEmotions[:emotionWindow]
		}
	}

	entries, err := p.journal.ListByUser(ctx, userID, journalWindow)
	if err != nil {
		return session.HistorySnapshot{}, err
	}
	for _, entry := range entries {
		snapshot.RecentJournals = append(snapshot.RecentJournals, entry.ID)
	}

	return snapshot, nil
}
