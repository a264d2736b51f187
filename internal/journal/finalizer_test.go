package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calmloop-dev/calmloop/pkg/session"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name       string
		utterances []string
		want       string
	}{
		{"more positive than negative", []string{"I feel calm and grateful today"}, SentimentPositive},
		{"more negative than positive", []string{"everything feels hopeless and I'm so stressed"}, SentimentNegative},
		{"no lexicon hits", []string{"we talked about the weather"}, SentimentNeutral},
		{"tie is neutral", []string{"I was stressed but now I feel calm"}, SentimentNeutral},
		{"empty input", nil, SentimentNeutral},
		{"word-exact matching", []string{"hopeless"}, SentimentNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeSentiment(tt.utterances))
		})
	}
}

func TestExtractKeyThemes(t *testing.T) {
	tests := []struct {
		name       string
		utterances []string
		want       []string
	}{
		{"work theme", []string{"I'm worried about my job deadline"}, []string{"work"}},
		{
			"multiple themes sorted",
			[]string{"my boss is awful", "I can't sleep and money is tight"},
			[]string{"finances", "sleep", "work"},
		},
		{"theme tagged once", []string{"job job job boss work"}, []string{"work"}},
		{"no themes", []string{"just a quiet day"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeyThemes(tt.utterances))
		})
	}
}

func TestGenerateInsights(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := func(mutate func(*session.Record)) *session.Record {
		r := &session.Record{
			Intensity: 5,
			Log: []session.Entry{
				{Role: session.RoleAssistant, Timestamp: base},
				{Role: session.RoleUser, Timestamp: base.Add(2 * time.Minute)},
			},
			Meta: session.Metadata{ModelUsed: therapy.FallbackModelName, UserMessages: 1},
		}
		if mutate != nil {
			mutate(r)
		}
		return r
	}

	t.Run("quiet short session yields nothing", func(t *testing.T) {
		assert.Empty(t, GenerateInsights(rec(nil)))
	})

	t.Run("long session", func(t *testing.T) {
		got := GenerateInsights(rec(func(r *session.Record) {
			r.Log[1].Timestamp = base.Add(20 * time.Minute)
		}))
		assert.Equal(t, []string{insightLongSession}, got)
	})

	t.Run("many messages", func(t *testing.T) {
		got := GenerateInsights(rec(func(r *session.Record) {
			r.Meta.UserMessages = 6
		}))
		assert.Equal(t, []string{insightManyMessages}, got)
	})

	t.Run("high intensity", func(t *testing.T) {
		got := GenerateInsights(rec(func(r *session.Record) {
			r.Intensity = 8
		}))
		assert.Equal(t, []string{insightHighIntensity}, got)
	})

	t.Run("live agent", func(t *testing.T) {
		got := GenerateInsights(rec(func(r *session.Record) {
			r.Meta.ModelUsed = "gemini:gemini-2.0-flash"
		}))
		assert.Equal(t, []string{insightLiveAgent}, got)
	})

	t.Run("rules fire in declaration order", func(t *testing.T) {
		got := GenerateInsights(rec(func(r *session.Record) {
			r.Log[1].Timestamp = base.Add(30 * time.Minute)
			r.Meta.UserMessages = 10
			r.Intensity = 9
			r.Meta.ModelUsed = "openai:gpt-4o-mini"
		}))
		assert.Equal(t, []string{insightLongSession, insightManyMessages, insightHighIntensity, insightLiveAgent}, got)
	})
}

func TestSummarize(t *testing.T) {
	rec := &session.Record{
		Emotion:   therapy.EmotionAnxiety,
		Intensity: 7,
		Context: session.TherapeuticContext{
			PrimaryApproach:       "CBT with mindfulness grounding",
			RecommendedTechniques: []string{"box breathing", "5-4-3-2-1 grounding"},
		},
		Log: []session.Entry{
			{Role: session.RoleAssistant, Text: "welcome"},
			{Role: session.RoleUser, Text: "my deadline is crushing me"},
		},
	}

	got := Summarize(rec)
	assert.Contains(t, got, "anxiety (intensity 7/10)")
	assert.Contains(t, got, "CBT with mindfulness grounding")
	assert.Contains(t, got, "my deadline is crushing me")
	assert.Contains(t, got, "box breathing")
	assert.NotContains(t, got, "welcome")
}

func TestSummarizeNoUtterances(t *testing.T) {
	rec := &session.Record{Emotion: therapy.EmotionSadness, Intensity: 4}
	assert.Contains(t, Summarize(rec), "showing up is enough")
}

func TestFinalizePersistsDerivedEntry(t *testing.T) {
	store := NewMemoryStore()
	fin := NewFinalizer(store)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &session.Record{
		ID:        "sess-1",
		UserID:    "user-1",
		Emotion:   therapy.EmotionStress,
		Intensity: 6,
		Status:    session.StatusEnded,
		StartTime: start,
		Context: session.TherapeuticContext{
			PrimaryApproach:       "stress management",
			RecommendedTechniques: []string{"prioritization"},
		},
		Log: []session.Entry{
			{Role: session.RoleAssistant, Text: "hi", Timestamp: start},
			{Role: session.RoleUser, Text: "work deadlines have me so stressed", Timestamp: start.Add(time.Minute)},
			{Role: session.RoleAssistant, Text: "tell me more", Timestamp: start.Add(2 * time.Minute)},
		},
		Meta: session.Metadata{ModelUsed: therapy.FallbackModelName, UserMessages: 1},
	}

	id, err := fin.Finalize(context.Background(), rec)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	entry, err := store.Get(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, 6, entry.Mood)
	assert.Contains(t, entry.Title, "stress")
	assert.Equal(t, "sess-1", entry.Meta.SessionID)
	assert.Equal(t, "sess-1", entry.Meta.RawLogRef)
	assert.Equal(t, 2*time.Minute, entry.Meta.Duration)
	assert.Equal(t, SentimentNegative, entry.Meta.Sentiment)
	assert.Equal(t, []string{"work"}, entry.Meta.Themes)
	assert.Equal(t, []string{"prioritization"}, entry.Meta.Techniques)
	assert.Equal(t, therapy.FallbackModelName, entry.Meta.ModelUsed)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	newest := time.Now().UTC()
	ids := make([]string, 0, 3)
	for i, created := range []time.Time{newest.Add(-2 * time.Hour), newest, newest.Add(-time.Hour)} {
		id, err := store.Create(ctx, &Entry{
			UserID:    "user-1",
			Title:     "entry",
			Mood:      i,
			CreatedAt: created,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err = store.Create(ctx, &Entry{UserID: "user-2", CreatedAt: newest})
	require.NoError(t, err)

	got, err := store.ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[1], got[0].ID)
	assert.Equal(t, ids[2], got[1].ID)
	assert.Equal(t, ids[0], got[2].ID)

	limited, err := store.ListByUser(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
