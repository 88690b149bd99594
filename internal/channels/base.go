// Package channels implements the chat transports that feed conversations
// into the agent: terminal, WebSocket, Telegram, and Slack.
package channels

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/schema"
)

// Request is one inbound message handed to the Responder.
type Request struct {
	Channel  string
	SenderID string
	ChatID   string
	Text     string
	Caps     schema.Capabilities
	Source   agent.MessageSource // nil for channels without mid-turn input
	OnDelta  agent.DeltaFunc     // nil when the transport cannot stream
	Metadata map[string]any
}

// SessionKey derives the session identity for this request.
func (r Request) SessionKey() string { return r.Channel + ":" + r.ChatID }

// Responder runs one conversational turn and returns the reply text.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Channel is one chat transport.
type Channel interface {
	Name() string
	Capabilities() schema.Capabilities
	// Start blocks until ctx is cancelled or the transport fails.
	Start(ctx context.Context) error
}

// Base holds common state and helpers shared by all channels.
type Base struct {
	name      string
	respond   Responder
	caps      schema.Capabilities
	allowFrom []string // empty = allow all
}

func NewBase(name string, respond Responder, caps schema.Capabilities, allowFrom []string) Base {
	return Base{name: name, respond: respond, caps: caps, allowFrom: allowFrom}
}

func (b *Base) Name() string                      { return b.name }
func (b *Base) Capabilities() schema.Capabilities { return b.caps }

// IsAllowed checks whether senderID is on the allowlist.
// senderID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, allowed := range b.allowFrom {
		if allowed == senderID {
			return true
		}
	}
	if strings.Contains(senderID, "|") {
		for _, part := range strings.Split(senderID, "|") {
			if part == "" {
				continue
			}
			for _, allowed := range b.allowFrom {
				if allowed == part {
					return true
				}
			}
		}
	}
	return false
}

// Dispatch enforces the allowlist and runs the turn. A denied sender gets no
// reply and no error; everything else goes to the Responder.
func (b *Base) Dispatch(ctx context.Context, req Request) (string, bool, error) {
	if !b.IsAllowed(req.SenderID) {
		slog.Warn("access denied", "channel", b.name, "sender", req.SenderID)
		return "", false, nil
	}
	req.Channel = b.name
	req.Caps = b.caps
	answer, err := b.respond.Respond(ctx, req)
	return answer, true, err
}

// splitMessage splits content into chunks that fit within maxLen, preferring
// newline breaks, then space breaks, then a hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t")
	}
	return chunks
}
