// Package session implements the therapeutic session registry: a
// single-process orchestrator that runs stateful conversations between a
// user and either a live conversation channel or the fallback responder,
// keeps the transcript in a dual-tier (memory + durable) store, and derives
// a journal artifact when a session ends.
package session

import (
	"time"

	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

// Status is the lifecycle state of a session. The only transition is
// Active -> Ended; Ended is terminal.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is a single turn in the conversation log. Entries are append-only
// and immutable once written.
type Entry struct {
	// ID is the unique identifier for this entry.
	ID string `json:"id"`
	// Timestamp is when the entry was appended.
	Timestamp time.Time `json:"timestamp"`
	// Role is who authored the entry.
	Role Role `json:"role"`
	// Text is the entry content.
	Text string `json:"text"`
	// Audio is the raw audio payload, when the turn carried one.
	Audio []byte `json:"audio,omitempty"`
}

// HistorySnapshot is the bounded recent-history view captured once at
// session start and never refreshed.
type HistorySnapshot struct {
	RecentEmotions []string `json:"recentEmotions"`
	RecentGames    []string `json:"recentGames"`
	RecentJournals []string `json:"recentJournals"`
}

// NeutralHistory is substituted when the history provider fails; session
// start never blocks on history.
func NeutralHistory() HistorySnapshot {
	return HistorySnapshot{
		RecentEmotions: []string{},
		RecentGames:    []string{},
		RecentJournals: []string{},
	}
}

// TherapeuticContext binds the selected approach to the session.
type TherapeuticContext struct {
	PrimaryConcern        string          `json:"primaryConcern"`
	PrimaryApproach       string          `json:"primaryApproach"`
	RecommendedTechniques []string        `json:"recommendedTechniques"`
	SessionGoals          []string        `json:"sessionGoals"`
	SystemPrompt          string          `json:"systemPrompt"`
	History               HistorySnapshot `json:"history"`
}

// Metadata holds per-session counters and the model that served it.
type Metadata struct {
	ModelUsed         string `json:"modelUsed"`
	TotalMessages     int    `json:"totalMessages"`
	UserMessages      int    `json:"userMessages"`
	AssistantMessages int    `json:"assistantMessages"`
}

// Record is the full state of one session. The registry owns the in-memory
// record for the session's active lifetime; the durable tier holds a
// best-effort mirror.
type Record struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Emotion   therapy.Emotion    `json:"emotion"`
	Intensity int                `json:"intensity"`
	Status    Status             `json:"status"`
	StartTime time.Time          `json:"startTime"`
	EndTime   *time.Time         `json:"endTime,omitempty"`
	Log       []Entry            `json:"log"`
	Context   TherapeuticContext `json:"context"`
	Meta      Metadata           `json:"meta"`
}

// Clone returns a deep copy safe to hand to callers while the registry
// keeps mutating the original.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Log = make([]Entry, len(r.Log))
	copy(out.Log, r.Log)
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	out.Context.RecommendedTechniques = append([]string(nil), r.Context.RecommendedTechniques...)
	out.Context.SessionGoals = append([]string(nil), r.Context.SessionGoals...)
	out.Context.History.RecentEmotions = append([]string(nil), r.Context.History.RecentEmotions...)
	out.Context.History.RecentGames = append([]string(nil), r.Context.History.RecentGames...)
	out.Context.History.RecentJournals = append([]string(nil), r.Context.History.RecentJournals...)
	return &out
}

// UserUtterances returns the text of every user entry, in log order.
func (r *Record) UserUtterances() []string {
	out := make([]string, 0, r.Meta.UserMessages)
	for _, e := range r.Log {
		if e.Role == RoleUser {
			out = append(out, e.Text)
		}
	}
	return out
}

// Duration is the span between the first and last log entries. Sessions
// with fewer than two entries have zero duration.
func (r *Record) Duration() time.Duration {
	if len(r.Log) < 2 {
		return 0
	}
	return r.Log[len(r.Log)-1].Timestamp.Sub(r.Log[0].Timestamp)
}
