package schema

import "context"

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

func NewChatOptions(model string, maxTokens int, temperature float64) ChatOptions {
	return ChatOptions{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// LLMResponse is the final aggregated assistant message from one request.
// The role is always "assistant".
type LLMResponse struct {
	Content          *string // nil when the response contains only tool calls
	ToolCalls        []ToolCall
	FinishReason     string
	Usage            map[string]int
	ReasoningContent *string
}

// HasToolCalls reports whether the response contains at least one tool call.
func (r LLMResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// StreamEvent is one element of a streamed chat completion: either a partial
// text delta, the final aggregated message (emitted exactly once, last), or a
// terminal error.
type StreamEvent struct {
	Delta string
	Final *LLMResponse
	Err   error
}

// LLMProvider is the streaming chat backend contract.
//
// ChatStream sends the accumulated messages plus tool schemas and returns a
// channel of events. The channel is closed after the Final (or Err) event.
// A request is restartable per turn, not mid-turn: abandoning the channel
// requires cancelling ctx and issuing a fresh request.
type LLMProvider interface {
	ChatStream(ctx context.Context, messages Messages, tools []map[string]any, opts ChatOptions) (<-chan StreamEvent, error)
	DefaultModel() string
}
