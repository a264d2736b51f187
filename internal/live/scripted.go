package live

import (
	"context"
	"sync"
	"time"

	"github.com/calmloop-dev/calmloop/pkg/session"
)

// ScriptedAdapter serves a fixed sequence of replies. It backs tests
// and the offline demo mode of the chat command.
type ScriptedAdapter struct {
	// AdapterName overrides the reported name when non-empty.
	AdapterName string
	// ConnectErr, when set, makes every Connect fail.
	ConnectErr error
	// RecvDelay delays each Recv, to exercise turn deadlines.
	RecvDelay time.Duration

	mu      sync.Mutex
	replies []string
}

// NewScriptedAdapter creates an adapter that replays replies in order.
// Once exhausted it repeats the last reply.
func NewScriptedAdapter(replies ...string) *ScriptedAdapter {
	return &ScriptedAdapter{replies: replies}
}

func (a *ScriptedAdapter) Name() string {
	if a.AdapterName != "" {
		return a.AdapterName
	}
	return "scripted"
}

func (a *ScriptedAdapter) Connect(ctx context.Context, systemPrompt string, modalities []session.Modality) (session.LiveChannel, error) {
	if a.ConnectErr != nil {
		return nil, a.ConnectErr
	}
	return &scriptedChannel{adapter: a}, nil
}

// next pops the next reply, keeping the last one around for repeats.
func (a *ScriptedAdapter) next() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.replies) == 0 {
		return ""
	}
	reply := a.replies[0]
	if len(a.replies) > 1 {
		a.replies = a.replies[1:]
	}
	return reply
}

type scriptedChannel struct {
	adapter *ScriptedAdapter

	mu      sync.Mutex
	pending bool
	closed  bool
}

func (c *scriptedChannel) SendText(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newAdapterError("scripted", "send", "channel closed", nil)
	}
	c.pending = true
	return nil
}

func (c *scriptedChannel) SendAudio(ctx context.Context, audio []byte) error {
	return c.SendText(ctx, "")
}

func (c *scriptedChannel) Recv(ctx context.Context) (session.LiveReply, error) {
	c.mu.Lock()
	if c.closed || !c.pending {
		c.mu.Unlock()
		return session.LiveReply{}, newAdapterError("scripted", "recv", "no user turn pending", nil)
	}
	c.pending = false
	c.mu.Unlock()

	if d := c.adapter.RecvDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return session.LiveReply{}, ctx.Err()
		}
	}
	return session.LiveReply{Text: c.adapter.next()}, nil
}

func (c *scriptedChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
