package schema

// ContentBlock is a single block in a multimodal user message
// (e.g. an image_url block alongside a text block).
type ContentBlock struct {
	Type       string         // "text" | "image_url" | "input_audio"
	Text       string         // when Type == "text"
	ImageURL   map[string]any // when Type == "image_url"
	InputAudio map[string]any // when Type == "input_audio"
}

// ToolCall represents one function call in an assistant message.
//
// Type is the wire-level call type; "" and "function" both mean a plain
// function call. The driver refuses any other type before dispatch, so calls
// that reach the dispatcher or the stored history are always function calls.
//
// Arguments is the raw JSON string the backend emitted — possibly empty or
// truncated mid-stream. Parsing is the dispatcher's job and is deliberately
// permissive; the stored history always keeps the original form.
type ToolCall struct {
	ID        string
	Type      string
	Name      string
	Arguments string
}

// IsFunction reports whether the call is a plain function call.
func (tc ToolCall) IsFunction() bool {
	return tc.Type == "" || tc.Type == "function"
}

// ToWireMap serialises a ToolCall into the OpenAI wire-format map.
// Used by provider implementations when building the JSON request body.
func (tc ToolCall) ToWireMap() map[string]any {
	return map[string]any{
		"id":   tc.ID,
		"type": "function",
		"function": map[string]any{
			"name":      tc.Name,
			"arguments": tc.Arguments,
		},
	}
}

// Message is one entry in the conversation history.
//
// Role is one of: "system", "user", "assistant", "tool".
//
// Content holds the message text or content blocks:
//   - system / tool: plain string
//   - user: string or []ContentBlock (multimodal)
//   - assistant: *string (may be nil when only tool calls are present)
//
// ToolCalls is populated for assistant messages that invoke tools.
// FunctionCall is the deprecated single-call field used only when the
// backend runs in legacy function-call mode; when set, ToolCalls is empty.
// ToolCallID and ToolName are set for tool-result messages.
// ReasoningContent carries the thinking block from models that emit one.
type Message struct {
	Role             string
	Content          any // string | *string | []ContentBlock
	ToolCalls        []ToolCall
	FunctionCall     *ToolCall // legacy mode, "assistant" role only
	ToolCallID       string    // "tool" role only
	ToolName         string    // "tool" role only
	ReasoningContent *string   // "assistant" role only
}

func NewSystemMessage(content string) Message {
	return Message{
		Role:    "system",
		Content: content,
	}
}

func NewUserMessage(content any) Message {
	return Message{
		Role:    "user",
		Content: content,
	}
}

func NewAssistantMessage(content *string, toolCalls []ToolCall, reasoningContent *string) Message {
	return Message{
		Role:             "assistant",
		Content:          content,
		ToolCalls:        toolCalls,
		ReasoningContent: reasoningContent,
	}
}

func NewToolResultMessage(toolCallID, toolName, result string) Message {
	return Message{
		Role:       "tool",
		Content:    result,
		ToolCallID: toolCallID,
		ToolName:   toolName,
	}
}

// TextContent extracts the plain-text content of a message, following the
// role-specific Content conventions documented on Message.
func (m Message) TextContent() string {
	switch c := m.Content.(type) {
	case string:
		return c
	case *string:
		if c != nil {
			return *c
		}
	case []ContentBlock:
		for _, b := range c {
			if b.Type == "text" {
				return b.Text
			}
		}
	}
	return ""
}
