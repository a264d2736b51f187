package live

import (
	"context"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

const defaultOpenAIModel = openai.GPT4oMini

// ChatCompleter is the slice of the OpenAI client the adapter needs.
// Defined here for testability.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdapter opens text conversation channels backed by the OpenAI
// chat completions API. Audio turns are not supported; sessions that
// need audio should use the Gemini adapter.
type OpenAIAdapter struct {
	client ChatCompleter
	model  string
}

// NewOpenAIAdapter creates an adapter using the given API key.
func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAdapter{client: openai.NewClient(apiKey), model: model}
}

// NewOpenAIAdapterWithClient creates an adapter with a custom client
// (useful for testing).
func NewOpenAIAdapterWithClient(client ChatCompleter, model string) *OpenAIAdapter {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIAdapter{client: client, model: model}
}

// Name identifies the upstream model for session metadata.
func (a *OpenAIAdapter) Name() string {
	return "openai:" + a.model
}

// Connect opens a channel primed with the session's system prompt.
func (a *OpenAIAdapter) Connect(ctx context.Context, systemPrompt string, modalities []session.Modality) (session.LiveChannel, error) {
	if hasModality(modalities, session.ModalityAudio) {
		return nil, newAdapterError("openai", "connect", "audio modality not supported", nil)
	}
	return &openaiChannel{
		client: a.client,
		model:  a.model,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
	}, nil
}

// openaiChannel holds the running conversation. Each Recv replays the
// accumulated history through the completions API, so the channel is
// stateful on our side and stateless upstream.
type openaiChannel struct {
	client ChatCompleter
	model  string

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
	pending bool
	closed  bool
}

func (c *openaiChannel) SendText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newAdapterError("openai", "send", "channel closed", nil)
	}
	c.history = append(c.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	c.pending = true
	return nil
}

func (c *openaiChannel) SendAudio(ctx context.Context, audio []byte) error {
	return newAdapterError("openai", "send", "audio turns not supported", nil)
}

func (c *openaiChannel) Recv(ctx context.Context) (session.LiveReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.LiveReply{}, newAdapterError("openai", "recv", "channel closed", nil)
	}
	if !c.pending {
		return session.LiveReply{}, newAdapterError("openai", "recv", "no user turn pending", nil)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: c.history,
	})
	if err != nil {
		return session.LiveReply{}, newAdapterError("openai", "recv", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return session.LiveReply{}, newAdapterError("openai", "recv", "no choices in response", nil)
	}

	reply := resp.Choices[0].Message.Content
	c.history = append(c.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})
	c.pending = false
	return session.LiveReply{Text: reply}, nil
}

func (c *openaiChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.history = nil
	return nil
}
