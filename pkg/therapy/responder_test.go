package therapy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponder_AlwaysNonEmpty(t *testing.T) {
	r := NewResponder(rand.New(rand.NewSource(1)))

	for _, emotion := range Emotions {
		for i := 0; i < 20; i++ {
			assert.NotEmpty(t, r.Reply(emotion), "emotion %s", emotion)
		}
	}
}

func TestResponder_UnknownEmotionUsesStressPool(t *testing.T) {
	// Same seed: the unknown emotion must draw from the same pool as stress.
	a := NewResponder(rand.New(rand.NewSource(42)))
	b := NewResponder(rand.New(rand.NewSource(42)))

	assert.Equal(t, b.Reply(EmotionStress), a.Reply(Emotion("bewilderment")))
}

func TestResponder_SeededReproducibility(t *testing.T) {
	a := NewResponder(rand.New(rand.NewSource(7)))
	b := NewResponder(rand.New(rand.NewSource(7)))

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Reply(EmotionAnxiety), b.Reply(EmotionAnxiety))
	}
}

func TestResponder_RepliesComeFromPool(t *testing.T) {
	r := NewResponder(rand.New(rand.NewSource(3)))

	pool := responsePools[EmotionGrief]
	for i := 0; i < 50; i++ {
		assert.Contains(t, pool, r.Reply(EmotionGrief))
	}
}

func TestWelcome_MentionsEmotionAndIntensity(t *testing.T) {
	r := NewResponder(rand.New(rand.NewSource(1)))

	msg := r.Welcome(EmotionAnxiety, 7)
	assert.Contains(t, msg, "anxiety")
	assert.Contains(t, msg, "7")

	// Unrecognized emotions greet as stress rather than echoing junk.
	msg = r.Welcome(Emotion("???"), 5)
	assert.Contains(t, msg, "stress")
}

func TestApology_Fixed(t *testing.T) {
	assert.Equal(t, Apology(), Apology())
	assert.NotEmpty(t, Apology())
}
