package session

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	tracing "github.com/calmloop-dev/calmloop/internal/observability"
	"github.com/calmloop-dev/calmloop/pkg/observability"
	"github.com/calmloop-dev/calmloop/pkg/therapy"
)

// PlaceholderTranscript stands in for the user's words when an audio turn
// arrives and no live channel can transcribe it. Real speech-to-text is an
// external collaborator, not this package's concern.
const PlaceholderTranscript = "(voice message — transcription unavailable)"

// Registry owns every active session for the lifetime of the process. It
// is an explicitly constructed, injectable object; callers decide how many
// registries exist. Safe for concurrent use; turns within one session are
// serialized.
type Registry struct {
	cfg       Config
	store     *ConversationStore
	responder *therapy.Responder
	history   HistoryProvider
	adapter   LiveAdapter
	finalizer Finalizer

	mu     sync.RWMutex
	active map[string]*liveSession
}

// liveSession pairs the in-memory record with its turn serialization lock
// and (lazily opened) live channel.
type liveSession struct {
	mu       sync.Mutex
	rec      *Record
	channel  LiveChannel
	lastTurn time.Time
}

// RegistryOptions carries the optional collaborators. Any of them may be
// nil: no history provider means a neutral snapshot, no adapter means every
// turn uses the fallback responder, no finalizer means ended sessions
// produce no journal entry.
type RegistryOptions struct {
	History   HistoryProvider
	Adapter   LiveAdapter
	Finalizer Finalizer
}

// NewRegistry creates a session registry.
func NewRegistry(cfg Config, store *ConversationStore, responder *therapy.Responder, opts RegistryOptions) *Registry {
	return &Registry{
		cfg:       cfg.withDefaults(),
		store:     store,
		responder: responder,
		history:   opts.History,
		adapter:   opts.Adapter,
		finalizer: opts.Finalizer,
		active:    make(map[string]*liveSession),
	}
}

// Initialize starts a new session. Initializing an ID that is already
// active fails with ErrSessionExists. History fetch and durable writes are
// best-effort: their failure never fails the call. The returned record is
// seeded with exactly one assistant welcome message.
func (r *Registry) Initialize(ctx context.Context, sessionID, userID string, emotion therapy.Emotion, intensity int) (*Record, error) {
	ctx, span := tracing.StartSpan(ctx, "session.initialize",
		attribute.String("session.id", sessionID),
		attribute.String("session.emotion", string(emotion)),
	)
	defer span.End()

	if intensity < 1 {
		intensity = 1
	} else if intensity > 10 {
		intensity = 10
	}

	history := r.fetchHistory(ctx, userID)
	profile := therapy.ProfileFor(emotion, intensity)

	rec := &Record{
		ID:        sessionID,
		UserID:    userID,
		Emotion:   emotion,
		Intensity: intensity,
		Status:    StatusActive,
		StartTime: time.Now().UTC(),
		Context: TherapeuticContext{
			PrimaryConcern:        string(emotion),
			PrimaryApproach:       profile.PrimaryApproach,
			RecommendedTechniques: profile.Techniques,
			SessionGoals:          profile.SessionGoals,
			SystemPrompt:          profile.SystemPrompt,
			History:               history,
		},
		Meta: Metadata{ModelUsed: r.responder.ModelName()},
	}

	ls := &liveSession{rec: rec, lastTurn: rec.StartTime}

	r.mu.Lock()
	if _, exists := r.active[sessionID]; exists {
		r.mu.Unlock()
		return nil, ErrSessionExists
	}
	r.active[sessionID] = ls
	count := len(r.active)
	r.mu.Unlock()

	ls.mu.Lock()
	r.store.Seed(ctx, rec)
	r.store.Append(ctx, rec, RoleAssistant, r.responder.Welcome(emotion, intensity), nil)
	out := rec.Clone()
	ls.mu.Unlock()

	observability.RecordSessionStarted(string(emotion))
	observability.SetActiveSessions(count)

	return out, nil
}

// fetchHistory captures the bounded recent-history snapshot. Failure is
// substituted with a neutral default and never blocks session start.
func (r *Registry) fetchHistory(ctx context.Context, userID string) HistorySnapshot {
	if r.history == nil {
		return NeutralHistory()
	}

	hctx, cancel := context.WithTimeout(ctx, r.cfg.HistoryTimeout)
	defer cancel()

	snapshot, err := r.history.GetRecent(hctx, userID)
	if err != nil {
		log.Printf("[Registry] history fetch failed for user %s, using neutral default: %v", userID, err)
		return NeutralHistory()
	}
	return snapshot
}

// ProcessText handles one user text turn and returns the assistant reply.
// Exactly one user entry and one assistant entry are appended per call.
func (r *Registry) ProcessText(ctx context.Context, sessionID, text string) (string, error) {
	return r.processInput(ctx, sessionID, text, nil)
}

// ProcessAudio handles one user audio turn. The user entry carries the
// live channel's transcription of the audio when one is produced, and
// PlaceholderTranscript otherwise, alongside the raw audio either way.
func (r *Registry) ProcessAudio(ctx context.Context, sessionID string, audio []byte) (string, error) {
	return r.processInput(ctx, sessionID, "", audio)
}

func (r *Registry) processInput(ctx context.Context, sessionID, text string, audio []byte) (string, error) {
	input := "text"
	if audio != nil {
		input = "audio"
	}

	ctx, span := tracing.StartSpan(ctx, "session.turn",
		attribute.String("session.id", sessionID),
		attribute.String("turn.input", input),
	)
	defer span.End()

	r.mu.RLock()
	ls, ok := r.active[sessionID]
	r.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.rec.Status != StatusActive {
		return "", ErrSessionNotFound
	}

	start := time.Now()

	reply, source, transcript := r.assistantReply(ctx, ls, text, audio)

	userText := text
	if audio != nil {
		userText = PlaceholderTranscript
		if transcript != "" {
			userText = transcript
		}
	}
	r.store.Append(ctx, ls.rec, RoleUser, userText, audio)
	r.store.Append(ctx, ls.rec, RoleAssistant, reply, nil)

	ls.lastTurn = time.Now().UTC()
	span.SetAttributes(attribute.String("turn.source", source))
	observability.RecordTurn(input, source, time.Since(start))

	return reply, nil
}

// assistantReply resolves the assistant's side of a turn: the live channel
// when one is reachable, the fallback responder otherwise. The transcript
// is the channel's transcription of a user audio turn, empty when none
// was produced. Panics are converted to a fixed apologetic reply;
// conversational continuity beats strict error surfacing here.
func (r *Registry) assistantReply(ctx context.Context, ls *liveSession, text string, audio []byte) (reply, source, transcript string) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[Registry] recovered panic during turn for session %s: %v", ls.rec.ID, p)
			reply = therapy.Apology()
			source = "fallback"
			transcript = ""
		}
	}()

	if r.adapter != nil {
		live, err := r.tryLive(ctx, ls, text, audio)
		if err == nil {
			return live.Text, "live", live.Transcript
		}
		log.Printf("[Registry] live adapter unavailable for session %s, falling back: %v", ls.rec.ID, err)
	}

	return r.responder.Reply(ls.rec.Emotion), "fallback", ""
}

var errEmptyLiveReply = errors.New("live channel returned an empty reply")

// tryLive sends the turn over the live channel, opening it on first use.
// The wait is bounded by TurnTimeout and resolves on the channel's own
// completion event. Any failure closes the channel so the next turn can
// reconnect.
func (r *Registry) tryLive(ctx context.Context, ls *liveSession, text string, audio []byte) (LiveReply, error) {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.TurnTimeout)
	defer cancel()

	if ls.channel == nil {
		modalities := []Modality{ModalityText}
		if audio != nil {
			modalities = append(modalities, ModalityAudio)
		}
		channel, err := r.adapter.Connect(tctx, ls.rec.Context.SystemPrompt, modalities)
		if err != nil {
			return LiveReply{}, err
		}
		ls.channel = channel
	}

	var err error
	if audio != nil {
		err = ls.channel.SendAudio(tctx, audio)
	} else {
		err = ls.channel.SendText(tctx, text)
	}
	if err != nil {
		r.dropChannel(ls)
		return LiveReply{}, err
	}

	liveReply, err := ls.channel.Recv(tctx)
	if err != nil {
		r.dropChannel(ls)
		return LiveReply{}, err
	}
	if liveReply.Text == "" {
		return LiveReply{}, errEmptyLiveReply
	}

	ls.rec.Meta.ModelUsed = r.adapter.Name()
	return liveReply, nil
}

func (r *Registry) dropChannel(ls *liveSession) {
	if ls.channel != nil {
		_ = ls.channel.Close()
		ls.channel = nil
	}
}

// End closes a session: marks it Ended, closes any open live channel,
// finalizes it into a journal entry and removes it from the active set.
// Ending an unknown or already-ended session is a no-op returning "".
func (r *Registry) End(ctx context.Context, sessionID string) (string, error) {
	return r.end(ctx, sessionID, "user")
}

func (r *Registry) end(ctx context.Context, sessionID, reason string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "session.end",
		attribute.String("session.id", sessionID),
	)
	defer span.End()

	r.mu.Lock()
	ls, ok := r.active[sessionID]
	if ok {
		delete(r.active, sessionID)
	}
	count := len(r.active)
	r.mu.Unlock()

	if !ok {
		return "", nil
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if ls.rec.Status == StatusEnded {
		return "", nil
	}

	now := time.Now().UTC()
	ls.rec.Status = StatusEnded
	ls.rec.EndTime = &now

	// Best-effort: a channel that fails to close is already useless.
	r.dropChannel(ls)

	r.store.SaveMeta(ctx, ls.rec)

	journalID := ""
	if r.finalizer != nil {
		fstart := time.Now()
		id, err := r.finalizer.Finalize(ctx, ls.rec.Clone())
		if err != nil {
			log.Printf("[Registry] finalization failed for session %s: %v", sessionID, err)
			observability.RecordFinalize("error", time.Since(fstart))
		} else {
			journalID = id
			observability.RecordFinalize("ok", time.Since(fstart))
		}
	}

	r.store.Forget(sessionID)
	observability.SetActiveSessions(count)
	observability.RecordSessionEnded(reason)

	return journalID, nil
}

// GetSession returns a copy of the session record. Active sessions come
// from memory (the authoritative copy, and the only copy for degraded
// sessions); ended sessions are served from the durable tier when present.
func (r *Registry) GetSession(ctx context.Context, sessionID string) (*Record, error) {
	r.mu.RLock()
	ls, ok := r.active[sessionID]
	r.mu.RUnlock()

	if ok {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		return ls.rec.Clone(), nil
	}

	return r.store.Load(ctx, sessionID)
}

// ActiveCount returns the number of currently active sessions.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}

// UserSessions returns a user's sessions, most recent first. In-memory
// copies win over their durable mirrors; memory-only degraded sessions
// appear even though the durable tier has never heard of them.
func (r *Registry) UserSessions(ctx context.Context, userID string, limit int) ([]*Record, error) {
	byID := make(map[string]*Record)

	durable, err := r.store.ListUser(ctx, userID, 0)
	if err != nil {
		// Read-side resilience mirrors the write side: serve what memory has.
		log.Printf("[Registry] durable session list failed for user %s: %v", userID, err)
	}
	for _, rec := range durable {
		byID[rec.ID] = rec
	}

	r.mu.RLock()
	actives := make([]*liveSession, 0)
	for _, ls := range r.active {
		actives = append(actives, ls)
	}
	r.mu.RUnlock()

	for _, ls := range actives {
		ls.mu.Lock()
		if ls.rec.UserID == userID {
			byID[ls.rec.ID] = ls.rec.Clone()
		}
		ls.mu.Unlock()
	}

	out := make([]*Record, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// EndAll ends every active session. Used during graceful shutdown so
// in-flight sessions still produce their journal entries.
func (r *Registry) EndAll(ctx context.Context) int {
	r.mu.RLock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		if _, err := r.end(ctx, id, "shutdown"); err != nil {
			log.Printf("[Registry] ending session %s during shutdown failed: %v", id, err)
		}
	}
	return len(ids)
}

// ReapIdle ends every session whose last turn is older than the configured
// idle timeout. Returns the number of sessions reaped.
func (r *Registry) ReapIdle(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-r.cfg.IdleTimeout)

	r.mu.RLock()
	stale := make([]string, 0)
	for id, ls := range r.active {
		ls.mu.Lock()
		idle := ls.lastTurn.Before(cutoff)
		ls.mu.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		if _, err := r.end(ctx, id, "reaped"); err != nil {
			log.Printf("[Registry] reaping session %s failed: %v", id, err)
		}
	}

	if len(stale) > 0 {
		log.Printf("[Registry] reaped %d idle session(s)", len(stale))
	}
	return len(stale)
}
