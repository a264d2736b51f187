package therapy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileFor_AllEmotionsCovered(t *testing.T) {
	for _, emotion := range Emotions {
		t.Run(string(emotion), func(t *testing.T) {
			p := ProfileFor(emotion, 5)
			assert.NotEmpty(t, p.PrimaryApproach)
			assert.NotEmpty(t, p.Techniques)
			assert.NotEmpty(t, p.SessionGoals)
			assert.NotEmpty(t, p.SystemPrompt)
		})
	}
}

func TestProfileFor_AnxietyIncludesGrounding(t *testing.T) {
	p := ProfileFor(EmotionAnxiety, 7)

	found := false
	for _, technique := range p.Techniques {
		if strings.Contains(technique, "breathing") || strings.Contains(technique, "grounding") {
			found = true
			break
		}
	}
	assert.True(t, found, "anxiety profile should include a breathing or grounding technique, got %v", p.Techniques)
}

func TestProfileFor_UnknownFallsBackToStress(t *testing.T) {
	unknown := ProfileFor(Emotion("melancholy"), 5)
	stress := ProfileFor(EmotionStress, 5)

	assert.Equal(t, stress.PrimaryApproach, unknown.PrimaryApproach)
	assert.Equal(t, stress.Techniques, unknown.Techniques)
}

func TestProfileFor_Deterministic(t *testing.T) {
	a := ProfileFor(EmotionSadness, 4)
	b := ProfileFor(EmotionSadness, 4)
	assert.Equal(t, a, b)
}

func TestProfileFor_HighIntensityPrependsGrounding(t *testing.T) {
	low := ProfileFor(EmotionFear, 3)
	high := ProfileFor(EmotionFear, 9)

	assert.NotEqual(t, low.SystemPrompt, high.SystemPrompt)
	assert.True(t, strings.HasPrefix(high.SystemPrompt, highIntensityPreamble))
	assert.Contains(t, high.SystemPrompt, "9/10")
}

func TestProfileFor_DoesNotAliasTable(t *testing.T) {
	p := ProfileFor(EmotionAnxiety, 5)
	p.Techniques[0] = "mutated"

	again := ProfileFor(EmotionAnxiety, 5)
	assert.NotEqual(t, "mutated", again.Techniques[0])
}
