package therapy

import "fmt"

// profiles is the fixed emotion -> approach table. ProfileFor copies slices
// before returning so the table itself is never mutated.
var profiles = map[Emotion]Profile{
	EmotionAnxiety: {
		PrimaryApproach: "cognitive-behavioral",
		Techniques:      []string{"box breathing", "5-4-3-2-1 grounding", "thought reframing"},
		SessionGoals:    []string{"reduce physiological arousal", "identify the anxious thought loop"},
		SystemPrompt:    "You are a calm, supportive therapeutic companion. The user is feeling anxious. Guide them gently through grounding and breathing before exploring what is driving the anxiety. Keep responses short and steady.",
	},
	EmotionStress: {
		PrimaryApproach: "stress-management",
		Techniques:      []string{"progressive muscle relaxation", "priority triage", "paced breathing"},
		SessionGoals:    []string{"lower acute stress", "separate controllable from uncontrollable stressors"},
		SystemPrompt:    "You are a calm, supportive therapeutic companion. The user is feeling stressed. Help them slow down, name their stressors, and pick one small manageable step.",
	},
	EmotionSadness: {
		PrimaryApproach: "behavioral-activation",
		Techniques:      []string{"activity scheduling", "self-compassion break", "mood journaling"},
		SessionGoals:    []string{"validate the feeling", "identify one small uplifting action"},
		SystemPrompt:    "You are a warm, supportive therapeutic companion. The user is feeling sad. Listen first, validate without rushing to fix, and gently explore small activities that used to bring them comfort.",
	},
	EmotionAnger: {
		PrimaryApproach: "emotion-regulation",
		Techniques:      []string{"timeout and cool-down", "physical release", "assertive communication"},
		SessionGoals:    []string{"de-escalate safely", "find the need underneath the anger"},
		SystemPrompt:    "You are a steady, non-judgmental therapeutic companion. The user is feeling angry. Acknowledge the anger as valid, help them discharge it safely, then look for the unmet need behind it.",
	},
	EmotionGrief: {
		PrimaryApproach: "grief-informed support",
		Techniques:      []string{"memory honoring", "feeling waves", "continuing bonds"},
		SessionGoals:    []string{"make room for the loss", "normalize the grieving process"},
		SystemPrompt:    "You are a gentle therapeutic companion. The user is grieving. Do not try to fix or reframe the loss. Hold space, invite them to share memories if they wish, and normalize waves of feeling.",
	},
	EmotionLoneliness: {
		PrimaryApproach: "connection-focused",
		Techniques:      []string{"social inventory", "reach-out planning", "self-connection practice"},
		SessionGoals:    []string{"reduce the sense of isolation", "plan one act of connection"},
		SystemPrompt:    "You are a warm therapeutic companion. The user is feeling lonely. Be genuinely present, explore what connection means to them, and help them plan one small reach-out.",
	},
	EmotionFear: {
		PrimaryApproach: "exposure-informed",
		Techniques:      []string{"safety anchoring", "graded exposure planning", "fear laddering"},
		SessionGoals:    []string{"restore a felt sense of safety", "size the fear accurately"},
		SystemPrompt:    "You are a calm, grounding therapeutic companion. The user is feeling afraid. Establish safety first, then help them describe the fear concretely so it becomes manageable.",
	},
	EmotionShame: {
		PrimaryApproach: "compassion-focused",
		Techniques:      []string{"self-compassion break", "common humanity reflection", "shame externalizing"},
		SessionGoals:    []string{"soften self-criticism", "separate the act from the self"},
		SystemPrompt:    "You are a deeply non-judgmental therapeutic companion. The user is feeling shame. Never moralize. Emphasize common humanity and help them speak to themselves as they would to a friend.",
	},
	EmotionJoy: {
		PrimaryApproach: "savoring and consolidation",
		Techniques:      []string{"savoring practice", "gratitude capture", "strengths spotting"},
		SessionGoals:    []string{"deepen the positive state", "capture what made it possible"},
		SystemPrompt:    "You are an encouraging therapeutic companion. The user is feeling joyful. Help them savor the moment, name what contributed to it, and anchor it for harder days.",
	},
}

const highIntensityPreamble = "The user rates the intensity as very high. Prioritize immediate grounding and stabilization before any exploration. "

// ProfileFor returns the approach profile for a reported emotion.
// Unrecognized emotions fall back to the stress profile. The selection is
// pure and deterministic: same inputs, same profile.
func ProfileFor(emotion Emotion, intensity int) Profile {
	p, ok := profiles[emotion]
	if !ok {
		p = profiles[EmotionStress]
	}

	out := Profile{
		PrimaryApproach: p.PrimaryApproach,
		Techniques:      append([]string(nil), p.Techniques...),
		SessionGoals:    append([]string(nil), p.SessionGoals...),
		SystemPrompt:    p.SystemPrompt,
	}

	if intensity >= 8 {
		out.SystemPrompt = highIntensityPreamble + out.SystemPrompt
	}
	out.SystemPrompt = fmt.Sprintf("%s Reported intensity: %d/10.", out.SystemPrompt, intensity)

	return out
}
