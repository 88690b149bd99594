package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hearthmind/hearthmind/internal/store"
)

func newNotesFixture(t *testing.T) (*NotesProvider, *store.Store) {
	t.Helper()
	blobs, err := store.Open(filepath.Join(t.TempDir(), "store.json"))
	if err != nil {
		t.Fatal(err)
	}
	return NewNotesProvider(blobs), blobs
}

func turnCtx(sessionKey string) context.Context {
	return WithTurn(context.Background(), TurnContext{SessionKey: sessionKey})
}

func TestNoteWriteScopedToSession(t *testing.T) {
	p, blobs := newNotesFixture(t)

	args := map[string]any{"name": "groceries", "text": "milk, eggs"}
	if _, err := p.CallTool(turnCtx("telegram:42"), "call_1", "note_write", args); err != nil {
		t.Fatal(err)
	}

	if got := blobs.Get("note:telegram:42:groceries"); got != "milk, eggs" {
		t.Errorf("stored = %v", got)
	}
	if got := blobs.Get("note:groceries"); got != nil {
		t.Errorf("unscoped key must stay empty, got %v", got)
	}
}

func TestNoteWriteSessionsDoNotCollide(t *testing.T) {
	p, blobs := newNotesFixture(t)

	args := map[string]any{"name": "todo", "text": "from the kitchen"}
	if _, err := p.CallTool(turnCtx("console:local"), "call_1", "note_write", args); err != nil {
		t.Fatal(err)
	}
	args = map[string]any{"name": "todo", "text": "from slack"}
	if _, err := p.CallTool(turnCtx("slack:C1"), "call_2", "note_write", args); err != nil {
		t.Fatal(err)
	}

	if got := blobs.Get("note:console:local:todo"); got != "from the kitchen" {
		t.Errorf("console note = %v", got)
	}
	if got := blobs.Get("note:slack:C1:todo"); got != "from slack" {
		t.Errorf("slack note = %v", got)
	}
}

func TestNoteWriteWithoutTurnContext(t *testing.T) {
	p, blobs := newNotesFixture(t)

	args := map[string]any{"name": "shared", "text": "fallback"}
	if _, err := p.CallTool(context.Background(), "call_1", "note_write", args); err != nil {
		t.Fatal(err)
	}
	if got := blobs.Get("note:shared"); got != "fallback" {
		t.Errorf("stored = %v", got)
	}
}
