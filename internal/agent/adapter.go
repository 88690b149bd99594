// Package agent implements the conversation core: the streaming driver that
// runs the request→tool→request loop, and the adapter that folds structured
// tool results back into chat messages.
package agent

import (
	"fmt"
	"strings"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/tools"
)

// Adapt converts a dispatched invocation into the messages appended to the
// conversation, and returns the result enriched with any minted blob tokens
// (the form the session records in its tool history).
//
// Chat backends only accept media on user messages. When the channel can
// render a part's media type, the part is smuggled in as a fabricated
// exchange: the tool message announces the attachment, a stub assistant
// "Ok." keeps role alternation intact, and a user message carries the actual
// content block. When the channel cannot render it, the part is parked behind
// a freshly minted chat:// token instead, for later tool calls to reference.
//
// Resources are never inlined: their body goes behind a token always. A
// result whose "mutable" metadata names a parameter that was itself resolved
// from a token re-records the updated body under that same token, so handles
// held by the model stay valid across edits.
//
// A content part of an unknown type fails the whole turn: silently dropping
// tool output would leave the model acting on a fiction.
func Adapt(inv *tools.Invocation, caps schema.Capabilities) ([]schema.Message, *schema.ToolResult, error) {
	result := inv.Result

	// Token to reuse for the first resource part, when the tool marked its
	// output as an in-place edit of a resolved input.
	reuse := ""
	if result.Metadata != nil {
		if param, ok := result.Metadata["mutable"].(string); ok {
			reuse = inv.Substituted[param]
		}
	}

	var summary []string
	var blocks []schema.ContentBlock
	seen := map[string]bool{}
	addSummary := func(s string) {
		if seen[s] {
			return
		}
		seen[s] = true
		summary = append(summary, s)
	}

	for _, part := range result.Content {
		switch part.Type {
		case schema.PartText:
			if part.Text != "" {
				addSummary(part.Text)
			}

		case schema.PartImage:
			dataURL := "data:" + part.MimeType + ";base64," + part.Data
			if caps.Image {
				blocks = append(blocks, schema.ContentBlock{
					Type:     "image_url",
					ImageURL: map[string]any{"url": dataURL},
				})
				continue
			}
			token := blob.MintToken()
			blob.AddEntry(result, blob.CategoryImages, blob.Entry{Token: token, Value: dataURL, MimeType: part.MimeType})
			addSummary(fmt.Sprintf(
				"An image (%s) was captured and stored as %s%s. Pass this reference to a tool that accepts images.",
				part.MimeType, blob.Scheme, token))

		case schema.PartAudio:
			dataURL := "data:" + part.MimeType + ";base64," + part.Data
			if caps.Audio {
				blocks = append(blocks, schema.ContentBlock{
					Type: "input_audio",
					InputAudio: map[string]any{
						"data":   part.Data,
						"format": audioFormat(part.MimeType),
					},
				})
				continue
			}
			token := blob.MintToken()
			blob.AddEntry(result, blob.CategoryAudio, blob.Entry{Token: token, Value: dataURL, MimeType: part.MimeType})
			addSummary(fmt.Sprintf(
				"An audio clip (%s) was produced and stored as %s%s. Pass this reference to a tool that accepts audio.",
				part.MimeType, blob.Scheme, token))

		case schema.PartResource:
			token := reuse
			reuse = ""
			if token == "" {
				token = blob.MintToken()
			}
			blob.AddEntry(result, blob.CategoryResources, blob.Entry{Token: token, Value: part.Text, MimeType: part.MimeType})
			addSummary(fmt.Sprintf(
				"A resource (%s, %d chars) is available as %s%s.",
				part.MimeType, len(part.Text), blob.Scheme, token))

		default:
			return nil, nil, &schema.UnsupportedContentTypeError{Type: part.Type}
		}
	}

	if len(blocks) > 0 {
		summary = append(summary, "The attachment follows in the next user message.")
	}
	text := strings.Join(summary, "\n")
	if text == "" {
		text = "(no output)"
	}

	msgs := []schema.Message{
		schema.NewToolResultMessage(inv.Call.ID, inv.Call.Name, text),
	}
	if len(blocks) > 0 {
		ack := "Ok."
		msgs = append(msgs,
			schema.NewAssistantMessage(&ack, nil, nil),
			schema.NewUserMessage(blocks),
		)
	}
	return msgs, result, nil
}

// audioFormat maps a mime type to the wire format field of input_audio
// blocks ("audio/mpeg" and "audio/mp3" both mean mp3).
func audioFormat(mimeType string) string {
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	}
	if f, ok := strings.CutPrefix(mimeType, "audio/"); ok {
		return f
	}
	return "wav"
}
