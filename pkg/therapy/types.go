// Package therapy maps a user's reported emotional state to a therapeutic
// approach profile and provides the canned-response engine used when no live
// conversation channel is available.
package therapy

// Emotion is a user-reported emotional state.
type Emotion string

const (
	EmotionAnxiety    Emotion = "anxiety"
	EmotionStress     Emotion = "stress"
	EmotionSadness    Emotion = "sadness"
	EmotionAnger      Emotion = "anger"
	EmotionGrief      Emotion = "grief"
	EmotionLoneliness Emotion = "loneliness"
	EmotionFear       Emotion = "fear"
	EmotionShame      Emotion = "shame"
	EmotionJoy        Emotion = "joy"
)

// Emotions lists every recognized emotion.
var Emotions = []Emotion{
	EmotionAnxiety,
	EmotionStress,
	EmotionSadness,
	EmotionAnger,
	EmotionGrief,
	EmotionLoneliness,
	EmotionFear,
	EmotionShame,
	EmotionJoy,
}

// Known reports whether e is one of the recognized emotions.
func (e Emotion) Known() bool {
	for _, known := range Emotions {
		if e == known {
			return true
		}
	}
	return false
}

// Profile describes the therapeutic approach bound to a reported emotion.
// Profiles are value types; callers may copy them freely.
type Profile struct {
	// PrimaryApproach names the modality (e.g. "cognitive-behavioral").
	PrimaryApproach string `json:"primaryApproach"`
	// Techniques are the recommended techniques for the session.
	Techniques []string `json:"techniques"`
	// SessionGoals are what the session should work toward.
	SessionGoals []string `json:"sessionGoals"`
	// SystemPrompt instructs the conversational agent.
	SystemPrompt string `json:"systemPrompt"`
}
