package therapy

import (
	"fmt"
	"math/rand"
)

// responsePools holds the canned empathetic templates per emotion. Emotions
// without a pool use the stress pool.
var responsePools = map[Emotion][]string{
	EmotionAnxiety: {
		"That sounds really unsettling. Let's slow things down together — can you take one slow breath with me?",
		"Anxiety can make everything feel urgent. Right now, in this moment, you are safe. What feels most pressing?",
		"I hear how much this is weighing on you. What does the anxiety feel like in your body right now?",
		"Thank you for naming that. Sometimes anxiety shrinks when we describe it out loud. Tell me more.",
	},
	EmotionStress: {
		"That sounds like a lot to carry. What feels heaviest right now?",
		"I hear you. When everything piles up it helps to name just one thing — what's the first that comes to mind?",
		"Thank you for sharing that. Let's take this one piece at a time. Where would you like to start?",
		"That's a real strain. What's one small thing that has helped you cope before?",
	},
	EmotionSadness: {
		"I'm really glad you told me that. Sadness deserves room — there's no rush here.",
		"That sounds painful. Would you like to say more about what's behind it?",
		"I hear you, and what you're feeling makes sense. What would comfort look like right now?",
		"Thank you for trusting me with that. What's one small thing that used to bring you a bit of light?",
	},
	EmotionAnger: {
		"That sounds genuinely frustrating. Your anger is telling us something matters here.",
		"I hear the heat in that. What happened just before the anger rose up?",
		"It makes sense that you're angry. If the anger could speak, what would it ask for?",
		"Thank you for being honest about that. What would help you release some of this safely?",
	},
	EmotionGrief: {
		"I'm so sorry. Loss like that doesn't need fixing — I'm here to sit with you in it.",
		"Grief comes in waves, and whatever wave you're in right now is okay. What's present for you?",
		"Thank you for sharing something so tender. Would you like to tell me about them?",
		"There's no timeline for this. What feels hardest today?",
	},
	EmotionLoneliness: {
		"Feeling alone is one of the hardest things. I'm here with you right now.",
		"Thank you for saying that out loud — it takes courage. When did the loneliness feel strongest?",
		"I hear you. What kind of connection do you find yourself missing most?",
		"You reached out, and that matters. Who in your life has felt safe to you, even a little?",
	},
	EmotionFear: {
		"That sounds frightening. You're safe here with me right now. What's the fear pointing at?",
		"Fear can make things feel bigger than they are. Can you describe it to me in concrete terms?",
		"I hear you. On a scale from one to ten, how close does the danger feel right now?",
		"Thank you for naming it. Named fears are easier to face. What's the worst part?",
	},
	EmotionShame: {
		"Thank you for trusting me with that — shame grows in silence, and you just broke the silence.",
		"What you're feeling is human. If a friend told you this same story, what would you say to them?",
		"I hear how harshly you're judging yourself. You are not the worst thing you've done.",
		"That took courage to say. Shame tells us we're alone in this — you're not.",
	},
	EmotionJoy: {
		"That's wonderful to hear! What made this moment possible?",
		"I love that. Take a second to really savor it — what does it feel like in your body?",
		"That's worth celebrating. What part of it would you like to remember on a harder day?",
		"Thank you for sharing something good. What strengths of yours helped this happen?",
	},
}

// FallbackModelName identifies the fallback engine in session metadata.
const FallbackModelName = "fallback-responder"

// apologyReply is returned when turn processing fails unexpectedly.
// Continuity of the conversation is preferred over surfacing the error.
const apologyReply = "I'm sorry — I lost my train of thought for a moment. I'm still here with you. Could you say that again?"

// Responder is the deterministic-interface, randomized-content fallback
// engine used when no live conversation channel is available. Content is
// intentionally non-deterministic; inject a seeded rand.Rand for
// reproducible tests.
type Responder struct {
	rng *rand.Rand
}

// NewResponder creates a Responder backed by the given random source.
func NewResponder(rng *rand.Rand) *Responder {
	return &Responder{rng: rng}
}

// Reply returns a canned empathetic response for the emotion. It always
// returns a non-empty string; unmapped emotions draw from the stress pool.
func (r *Responder) Reply(emotion Emotion) string {
	pool, ok := responsePools[emotion]
	if !ok || len(pool) == 0 {
		pool = responsePools[EmotionStress]
	}
	return pool[r.rng.Intn(len(pool))]
}

// Welcome returns the assistant greeting that seeds a new session log.
func (r *Responder) Welcome(emotion Emotion, intensity int) string {
	if !emotion.Known() {
		emotion = EmotionStress
	}
	return fmt.Sprintf(
		"Hi, I'm glad you're here. You mentioned you're feeling %s at about %d out of 10. This is your space — where would you like to begin?",
		string(emotion), intensity,
	)
}

// Apology returns the fixed reply used when a turn fails unexpectedly.
func Apology() string {
	return apologyReply
}

// ModelName identifies the fallback engine in session metadata.
func (r *Responder) ModelName() string {
	return FallbackModelName
}
