package session

import "context"

// Modality selects the channel media a live conversation should carry.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
)

// LiveReply is one assistant reply resolved from a live channel.
type LiveReply struct {
	// Text is the assistant reply text.
	Text string
	// Transcript is the transcription of the user's audio turn, when the
	// channel produced one.
	Transcript string
}

// LiveChannel is an open realtime conversation with the upstream agent.
// Implementations resolve Recv on the channel's own completion event; the
// registry bounds the wait with a context deadline.
type LiveChannel interface {
	// SendText submits a user text turn.
	SendText(ctx context.Context, text string) error

	// SendAudio submits a user audio turn.
	SendAudio(ctx context.Context, audio []byte) error

	// Recv blocks until the next assistant reply or ctx expiry.
	Recv(ctx context.Context) (LiveReply, error)

	// Close tears the channel down. Safe to call more than once.
	Close() error
}

// LiveAdapter opens live conversation channels. Adapter failure is never
// fatal: the registry degrades to the fallback responder.
type LiveAdapter interface {
	// Connect opens a channel primed with the session's system prompt.
	Connect(ctx context.Context, systemPrompt string, modalities []Modality) (LiveChannel, error)

	// Name identifies the upstream model for session metadata.
	Name() string
}

// HistoryProvider supplies the bounded recent-history snapshot captured at
// session start. Read-only and best-effort; errors are substituted with a
// neutral default.
type HistoryProvider interface {
	GetRecent(ctx context.Context, userID string) (HistorySnapshot, error)
}

// Finalizer turns an ended session into a persisted journal artifact and
// returns the journal entry ID.
type Finalizer interface {
	Finalize(ctx context.Context, rec *Record) (string, error)
}
