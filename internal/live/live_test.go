package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.reply}},
		},
	}, nil
}

func TestOpenAIChannelRoundTrip(t *testing.T) {
	fake := &fakeCompleter{reply: "I hear you."}
	adapter := NewOpenAIAdapterWithClient(fake, "gpt-4o-mini")

	ch, err := adapter.Connect(context.Background(), "be kind", []session.Modality{session.ModalityText})
	require.NoError(t, err)

	require.NoError(t, ch.SendText(context.Background(), "hello"))
	reply, err := ch.Recv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "I hear you.", reply.Text)

	// System prompt plus the user turn went upstream.
	require.Len(t, fake.last.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.last.Messages[0].Role)
	assert.Equal(t, "be kind", fake.last.Messages[0].Content)

	// Second turn replays the full history.
	require.NoError(t, ch.SendText(context.Background(), "still here"))
	_, err = ch.Recv(context.Background())
	require.NoError(t, err)
	assert.Len(t, fake.last.Messages, 4)
}

func TestOpenAIAdapterRejectsAudio(t *testing.T) {
	adapter := NewOpenAIAdapterWithClient(&fakeCompleter{}, "")
	_, err := adapter.Connect(context.Background(), "prompt", []session.Modality{session.ModalityText, session.ModalityAudio})
	require.Error(t, err)

	var ae *AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "openai", ae.Adapter)
}

func TestOpenAIRecvWithoutPendingTurn(t *testing.T) {
	adapter := NewOpenAIAdapterWithClient(&fakeCompleter{reply: "hi"}, "")
	ch, err := adapter.Connect(context.Background(), "prompt", nil)
	require.NoError(t, err)

	_, err = ch.Recv(context.Background())
	assert.Error(t, err)
}

func TestAdapterErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newAdapterError("openai", "recv", "chat completion failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "openai recv")
}

func TestThrottledFailsFast(t *testing.T) {
	inner := NewScriptedAdapter("ok")
	throttled := Throttle(inner, rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := throttled.Connect(context.Background(), "prompt", nil)
	require.NoError(t, err)

	_, err = throttled.Connect(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "scripted", throttled.Name())
}

func TestScriptedAdapterSequence(t *testing.T) {
	adapter := NewScriptedAdapter("first", "second")
	ch, err := adapter.Connect(context.Background(), "prompt", nil)
	require.NoError(t, err)

	for _, want := range []string{"first", "second", "second"} {
		require.NoError(t, ch.SendText(context.Background(), "turn"))
		reply, err := ch.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, reply.Text)
	}
}

func TestScriptedRecvHonorsDeadline(t *testing.T) {
	adapter := NewScriptedAdapter("slow")
	adapter.RecvDelay = 200 * time.Millisecond
	ch, err := adapter.Connect(context.Background(), "prompt", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, ch.SendText(ctx, "turn"))
	_, err = ch.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
