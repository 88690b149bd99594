package schema

// PartType discriminates ContentPart variants.
type PartType string

const (
	PartText     PartType = "text"
	PartImage    PartType = "image"
	PartAudio    PartType = "audio"
	PartResource PartType = "resource"
)

// ContentPart is one element of a tool result (discriminated union).
//
//   - text:     Text
//   - image:    MimeType + Data (base64)
//   - audio:    MimeType + Data (base64)
//   - resource: MimeType + Text
type ContentPart struct {
	Type     PartType `json:"type"`
	Text     string   `json:"text,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Data     string   `json:"data,omitempty"`
}

func NewTextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

func NewImagePart(mimeType, base64Data string) ContentPart {
	return ContentPart{Type: PartImage, MimeType: mimeType, Data: base64Data}
}

func NewAudioPart(mimeType, base64Data string) ContentPart {
	return ContentPart{Type: PartAudio, MimeType: mimeType, Data: base64Data}
}

func NewResourcePart(mimeType, text string) ContentPart {
	return ContentPart{Type: PartResource, MimeType: mimeType, Text: text}
}

// ToolResult is the structured outcome of one tool invocation.
//
// Metadata is a side channel the adapter uses to record minted blob tokens
// (under "images", "audio", "resources") and tools use for hints such as
// "mutable". It travels with the result into the session's tool history so
// later calls can resolve chat:// references against it.
type ToolResult struct {
	Content  []ContentPart  `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	IsError  bool           `json:"isError,omitempty"`
}

// NewToolResult builds a result from content parts.
func NewToolResult(parts ...ContentPart) *ToolResult {
	return &ToolResult{Content: parts}
}

// NewErrorResult builds an error-flagged text result. Tool failures are
// conversational content, never exceptions: the assistant sees the text and
// can self-correct.
func NewErrorResult(text string) *ToolResult {
	return &ToolResult{
		Content: []ContentPart{NewTextPart(text)},
		IsError: true,
	}
}

// SetMeta stores a metadata value, allocating the map on first use.
func (r *ToolResult) SetMeta(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}
