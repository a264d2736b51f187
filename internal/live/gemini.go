package live

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	audioMIMEType      = "audio/pcm"
)

// GeminiAdapter opens conversation channels backed by the Gemini API.
// It carries both text and audio user turns; audio is sent inline and
// answered with text, which the registry stores as the assistant reply.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates an adapter using the given API key.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, newAdapterError("gemini", "init", "failed to create client", err)
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

// Name identifies the upstream model for session metadata.
func (a *GeminiAdapter) Name() string {
	return "gemini:" + a.model
}

// Connect opens a channel primed with the session's system prompt.
// All requested modalities are accepted.
func (a *GeminiAdapter) Connect(ctx context.Context, systemPrompt string, modalities []session.Modality) (session.LiveChannel, error) {
	return &geminiChannel{
		client: a.client,
		model:  a.model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		},
	}, nil
}

// geminiChannel replays the accumulated conversation through
// GenerateContent on each Recv.
type geminiChannel struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig

	mu      sync.Mutex
	history []*genai.Content
	pending bool
	closed  bool
}

func (c *geminiChannel) SendText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newAdapterError("gemini", "send", "channel closed", nil)
	}
	c.history = append(c.history, genai.NewContentFromText(text, genai.RoleUser))
	c.pending = true
	return nil
}

func (c *geminiChannel) SendAudio(ctx context.Context, audio []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newAdapterError("gemini", "send", "channel closed", nil)
	}
	c.history = append(c.history, genai.NewContentFromBytes(audio, audioMIMEType, genai.RoleUser))
	c.pending = true
	return nil
}

func (c *geminiChannel) Recv(ctx context.Context) (session.LiveReply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.LiveReply{}, newAdapterError("gemini", "recv", "channel closed", nil)
	}
	if !c.pending {
		return session.LiveReply{}, newAdapterError("gemini", "recv", "no user turn pending", nil)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, c.history, c.config)
	if err != nil {
		return session.LiveReply{}, newAdapterError("gemini", "recv", "generate content failed", err)
	}

	reply := resp.Text()
	if reply == "" {
		return session.LiveReply{}, newAdapterError("gemini", "recv", "empty reply", nil)
	}

	c.history = append(c.history, genai.NewContentFromText(reply, genai.RoleModel))
	c.pending = false
	return session.LiveReply{Text: reply}, nil
}

func (c *geminiChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.history = nil
	return nil
}
