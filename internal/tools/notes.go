package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/store"
)

// NotesProvider is a scratchpad over the per-user store. note_edit takes an
// existing chat:// resource and returns the edited body as a resource marked
// mutable, so the adapter keeps the original token stable across edits.
type NotesProvider struct {
	blobs *store.Store
}

func NewNotesProvider(blobs *store.Store) *NotesProvider {
	return &NotesProvider{blobs: blobs}
}

func (p *NotesProvider) ListTools(_ context.Context) ([]schema.ToolDescriptor, error) {
	return []schema.ToolDescriptor{
		{
			Name:        "note_write",
			Description: "Save a text note. Returns a chat:// resource handle for later edits.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Note name",
					},
					"text": map[string]any{
						"type":        "string",
						"description": "Note body",
					},
				},
				"required":             []any{"name", "text"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "note_edit",
			Description: "Replace text inside a note referenced by its chat:// handle. The handle stays valid.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"note": map[string]any{
						"type":        "string",
						"format":      "uri",
						"mimeType":    "text/plain",
						"description": "chat:// handle of the note",
					},
					"find": map[string]any{
						"type":        "string",
						"description": "Text to find",
					},
					"replace": map[string]any{
						"type":        "string",
						"description": "Replacement text",
					},
				},
				"required":             []any{"note", "find", "replace"},
				"additionalProperties": false,
			},
		},
	}, nil
}

func (p *NotesProvider) CallTool(ctx context.Context, _, name string, args map[string]any) (*schema.ToolResult, error) {
	switch name {
	case "note_write":
		return p.write(ctx, args)
	case "note_edit":
		return p.edit(args)
	}
	return nil, fmt.Errorf("notes provider has no tool %q", name)
}

// noteKey scopes a note to the session it was written in, so two chats never
// clobber each other's notes of the same name.
func noteKey(ctx context.Context, name string) string {
	if tc := TurnCtx(ctx); tc.SessionKey != "" {
		return "note:" + tc.SessionKey + ":" + name
	}
	return "note:" + name
}

func (p *NotesProvider) write(ctx context.Context, args map[string]any) (*schema.ToolResult, error) {
	name, _ := args["name"].(string)
	text, _ := args["text"].(string)
	if name == "" || text == "" {
		return schema.NewErrorResult("Error: name and text are required"), nil
	}
	if p.blobs != nil {
		if err := p.blobs.Put(noteKey(ctx, name), text); err != nil {
			return nil, err
		}
	}
	return schema.NewToolResult(
		schema.NewTextPart(fmt.Sprintf("Saved note %q (%d chars).", name, len(text))),
		schema.NewResourcePart("text/plain", text),
	), nil
}

func (p *NotesProvider) edit(args map[string]any) (*schema.ToolResult, error) {
	// By the time this runs, the dispatcher has already resolved the
	// chat:// handle into the note body.
	body, _ := args["note"].(string)
	find, _ := args["find"].(string)
	replace, _ := args["replace"].(string)
	if body == "" || find == "" {
		return schema.NewErrorResult("Error: note and find are required"), nil
	}
	if !strings.Contains(body, find) {
		return schema.NewErrorResult(fmt.Sprintf("Error: %q not found in note", find)), nil
	}
	edited := strings.ReplaceAll(body, find, replace)

	r := schema.NewToolResult(
		schema.NewTextPart("Note updated."),
		schema.NewResourcePart("text/plain", edited),
	)
	// Keep the caller's handle stable: the adapter reuses the token that
	// the "note" parameter resolved from.
	r.SetMeta("mutable", "note")
	return r, nil
}
