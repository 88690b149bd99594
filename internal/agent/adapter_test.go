package agent

import (
	"errors"
	"strings"
	"testing"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/tools"
)

func invocation(result *schema.ToolResult) *tools.Invocation {
	return &tools.Invocation{
		Call:        schema.ToolCall{ID: "call_1", Name: "camera_snapshot", Arguments: "{}"},
		Result:      result,
		Substituted: map[string]string{},
	}
}

func TestAdaptTextOnly(t *testing.T) {
	inv := invocation(schema.NewToolResult(
		schema.NewTextPart("Turned kitchen light on."),
		schema.NewTextPart("Dim level: 40%."),
	))

	msgs, enriched, err := Adapt(inv, schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Role != "tool" || m.ToolCallID != "call_1" || m.ToolName != "camera_snapshot" {
		t.Fatalf("tool message = %+v", m)
	}
	want := "Turned kitchen light on.\nDim level: 40%."
	if m.TextContent() != want {
		t.Errorf("text = %q, want %q", m.TextContent(), want)
	}
	if enriched.Metadata != nil {
		t.Errorf("text-only result should mint no tokens, metadata = %v", enriched.Metadata)
	}
}

func TestAdaptSummaryDeduplicated(t *testing.T) {
	inv := invocation(schema.NewToolResult(
		schema.NewTextPart("Done."),
		schema.NewTextPart("Done."),
		schema.NewTextPart("Light is at 40%."),
		schema.NewTextPart("Done."),
	))

	msgs, _, err := Adapt(inv, schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	want := "Done.\nLight is at 40%."
	if got := msgs[0].TextContent(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestAdaptEmptyResult(t *testing.T) {
	msgs, _, err := Adapt(invocation(schema.NewToolResult()), schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].TextContent() != "(no output)" {
		t.Errorf("text = %q", msgs[0].TextContent())
	}
}

func TestAdaptImageInlined(t *testing.T) {
	inv := invocation(schema.NewToolResult(
		schema.NewTextPart("Snapshot from Front Door."),
		schema.NewImagePart("image/jpeg", "AAAA"),
	))

	msgs, enriched, err := Adapt(inv, schema.Capabilities{Image: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want tool+assistant+user", len(msgs))
	}
	if msgs[0].Role != "tool" {
		t.Errorf("first role = %s", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].TextContent(), "next user message") {
		t.Errorf("tool message should announce the attachment, got %q", msgs[0].TextContent())
	}
	if msgs[1].Role != "assistant" || msgs[1].TextContent() != "Ok." {
		t.Errorf("stub message = %+v", msgs[1])
	}
	if msgs[2].Role != "user" {
		t.Errorf("attachment role = %s", msgs[2].Role)
	}
	blocks, ok := msgs[2].Content.([]schema.ContentBlock)
	if !ok || len(blocks) != 1 || blocks[0].Type != "image_url" {
		t.Fatalf("attachment content = %+v", msgs[2].Content)
	}
	url, _ := blocks[0].ImageURL["url"].(string)
	if url != "data:image/jpeg;base64,AAAA" {
		t.Errorf("url = %q", url)
	}
	if enriched.Metadata != nil {
		t.Errorf("inlined image should mint no token, metadata = %v", enriched.Metadata)
	}
}

func TestAdaptImageTokenizedWithoutCapability(t *testing.T) {
	inv := invocation(schema.NewToolResult(schema.NewImagePart("image/jpeg", "AAAA")))

	msgs, enriched, err := Adapt(inv, schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (no fabricated exchange)", len(msgs))
	}
	if !strings.Contains(msgs[0].TextContent(), blob.Scheme) {
		t.Errorf("summary should carry a chat:// reference, got %q", msgs[0].TextContent())
	}
	entries, _ := enriched.Metadata[blob.CategoryImages].([]blob.Entry)
	if len(entries) != 1 {
		t.Fatalf("images metadata = %v", enriched.Metadata)
	}
	e := entries[0]
	if e.MimeType != "image/jpeg" || e.Value != "data:image/jpeg;base64,AAAA" {
		t.Errorf("entry = %+v", e)
	}
	if !strings.Contains(msgs[0].TextContent(), e.Token) {
		t.Errorf("summary %q should name token %q", msgs[0].TextContent(), e.Token)
	}
}

func TestAdaptAudioInlined(t *testing.T) {
	inv := invocation(schema.NewToolResult(schema.NewAudioPart("audio/mpeg", "BBBB")))

	msgs, _, err := Adapt(inv, schema.Capabilities{Audio: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	blocks := msgs[2].Content.([]schema.ContentBlock)
	if blocks[0].Type != "input_audio" {
		t.Fatalf("block = %+v", blocks[0])
	}
	if blocks[0].InputAudio["format"] != "mp3" || blocks[0].InputAudio["data"] != "BBBB" {
		t.Errorf("input_audio = %v", blocks[0].InputAudio)
	}
}

func TestAdaptResourceAlwaysTokenized(t *testing.T) {
	inv := invocation(schema.NewToolResult(
		schema.NewTextPart("Fetched page."),
		schema.NewResourcePart("text/markdown", "# Title\n\nBody"),
	))

	// Full media capabilities must not change resource handling.
	msgs, enriched, err := Adapt(inv, schema.Capabilities{Image: true, Audio: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("resources are never inlined, got %d messages", len(msgs))
	}
	entries, _ := enriched.Metadata[blob.CategoryResources].([]blob.Entry)
	if len(entries) != 1 {
		t.Fatalf("resources metadata = %v", enriched.Metadata)
	}
	if entries[0].Value != "# Title\n\nBody" || entries[0].MimeType != "text/markdown" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestAdaptMutableResourceReusesToken(t *testing.T) {
	result := schema.NewToolResult(
		schema.NewTextPart("Note updated."),
		schema.NewResourcePart("text/plain", "edited body"),
	)
	result.SetMeta("mutable", "note")

	inv := invocation(result)
	inv.Substituted["note"] = "cedar-lark-opal-ridge"

	_, enriched, err := Adapt(inv, schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := enriched.Metadata[blob.CategoryResources].([]blob.Entry)
	if len(entries) != 1 || entries[0].Token != "cedar-lark-opal-ridge" {
		t.Fatalf("entries = %v, want original token reused", entries)
	}
}

func TestAdaptMutableWithoutSubstitutionMintsFresh(t *testing.T) {
	result := schema.NewToolResult(schema.NewResourcePart("text/plain", "body"))
	result.SetMeta("mutable", "note")

	_, enriched, err := Adapt(invocation(result), schema.TextOnly())
	if err != nil {
		t.Fatal(err)
	}
	entries, _ := enriched.Metadata[blob.CategoryResources].([]blob.Entry)
	if len(entries) != 1 || entries[0].Token == "" {
		t.Fatalf("entries = %v, want a freshly minted token", entries)
	}
}

func TestAdaptUnknownPartTypeFatal(t *testing.T) {
	result := schema.NewToolResult(schema.ContentPart{Type: "video", Data: "CCCC"})

	_, _, err := Adapt(invocation(result), schema.TextOnly())
	var unsupported *schema.UnsupportedContentTypeError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedContentTypeError", err)
	}
	if unsupported.Type != "video" {
		t.Errorf("Type = %q", unsupported.Type)
	}
}
