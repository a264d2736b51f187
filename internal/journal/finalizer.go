package journal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/calmloop-dev/calmloop/pkg/session"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

// Sentiment labels for AnalyzeSentiment results.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Insight rules, checked in declaration order.
const (
	insightLongSession   = "You stayed with this for a meaningful stretch of time. Sustained reflection like that is where change starts."
	insightManyMessages  = "You expressed a lot today. Putting feelings into words, turn after turn, is itself progress."
	insightHighIntensity = "You reached out while your feelings were very intense. That takes real courage."
	insightLiveAgent     = "You engaged in a live conversation. The back-and-forth often surfaces what journaling alone cannot."
)

const (
	longSessionThreshold  = 15 * time.Minute
	manyMessagesThreshold = 5
	highIntensityCutoff   = 7
)

// Finalizer turns an ended session record into a persisted journal entry.
// It implements session.Finalizer.
type Finalizer struct {
	store Store
}

// NewFinalizer creates a finalizer that persists entries to store.
func NewFinalizer(store Store) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize derives the journal entry from an ended session and persists
// it, returning the new entry's ID.
func (f *Finalizer) Finalize(ctx context.Context, rec *session.Record) (string, error) {
	utterances := rec.UserUtterances()

	entry := &Entry{
		UserID:    rec.UserID,
		Title:     entryTitle(rec),
		Content:   Summarize(rec),
		Mood:      rec.Intensity,
		CreatedAt: time.Now().UTC(),
		Meta: Meta{
			SessionID:  rec.ID,
			Duration:   rec.Duration(),
			Techniques: rec.Context.RecommendedTechniques,
			RawLogRef:  rec.ID,
			Sentiment:  AnalyzeSentiment(utterances),
			Themes:     ExtractKeyThemes(utterances),
			Insights:   GenerateInsights(rec),
			ModelUsed:  rec.Meta.ModelUsed,
		},
	}

	id, err := f.store.Create(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("persist journal entry: %w", err)
	}
	return id, nil
}

func entryTitle(rec *session.Record) string {
	day := rec.StartTime.Format("January 2, 2006")
	return fmt.Sprintf("Guided session: %s — %s", rec.Emotion, day)
}

// Summarize builds the journal entry body: emotion, intensity, approach,
// what the user shared, and the techniques offered.
func Summarize(rec *session.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reported emotion: %s (intensity %d/10)\n", rec.Emotion, rec.Intensity)
	fmt.Fprintf(&b, "Approach: %s\n\n", rec.Context.PrimaryApproach)

	utterances := rec.UserUtterances()
	if len(utterances) == 0 {
		b.WriteString("No words were shared this session; sometimes showing up is enough.\n")
	} else {
		b.WriteString("What was shared:\n")
		for _, u := range utterances {
			fmt.Fprintf(&b, "  - %s\n", u)
		}
	}

	if len(rec.Context.RecommendedTechniques) > 0 {
		b.WriteString("\nTechniques explored: ")
		b.WriteString(strings.Join(rec.Context.RecommendedTechniques, ", "))
		b.WriteString("\n")
	}

	return b.String()
}

// AnalyzeSentiment classifies concatenated user utterances against the
// fixed positive/negative lexicons. Deterministic given fixed lexicons:
// more positive than negative words is positive, the reverse is negative,
// a tie (including zero hits) is neutral.
func AnalyzeSentiment(utterances []string) string {
	positives, negatives := 0, 0
	for _, word := range tokenize(utterances) {
		if _, ok := positiveWords[word]; ok {
			positives++
		}
		if _, ok := negativeWords[word]; ok {
			negatives++
		}
	}

	switch {
	case positives > negatives:
		return SentimentPositive
	case negatives > positives:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ExtractKeyThemes returns the set of theme names whose lexicon matches
// any user utterance. The result is sorted for stable output; callers
// should treat it as a set.
func ExtractKeyThemes(utterances []string) []string {
	seen := make(map[string]struct{})
	for _, word := range tokenize(utterances) {
		for theme, words := range themeLexicons {
			if _, tagged := seen[theme]; tagged {
				continue
			}
			for _, w := range words {
				if word == w {
					seen[theme] = struct{}{}
					break
				}
			}
		}
	}

	themes := make([]string, 0, len(seen))
	for theme := range seen {
		themes = append(themes, theme)
	}
	sort.Strings(themes)
	return themes
}

// GenerateInsights runs the independent insight rules in declaration
// order, appending each rule's fixed observation when it fires.
func GenerateInsights(rec *session.Record) []string {
	insights := make([]string, 0, 4)

	if rec.Duration() > longSessionThreshold {
		insights = append(insights, insightLongSession)
	}
	if rec.Meta.UserMessages > manyMessagesThreshold {
		insights = append(insights, insightManyMessages)
	}
	if rec.Intensity > highIntensityCutoff {
		insights = append(insights, insightHighIntensity)
	}
	if rec.Meta.ModelUsed != "" && rec.Meta.ModelUsed != therapy.FallbackModelName {
		insights = append(insights, insightLiveAgent)
	}

	return insights
}

// tokenize lowercases and splits utterances into letter-only words, so
// lexicon matching is word-exact ("hopeless" never counts as "hope").
func tokenize(utterances []string) []string {
	joined := strings.ToLower(strings.Join(utterances, " "))
	return strings.FieldsFunc(joined, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}
