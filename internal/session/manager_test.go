package session

import (
	"testing"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
)

func TestManagerSaveLoadRoundTrip(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	s := m.GetOrCreate("telegram:42")
	s.EnsureSystem("You are a home assistant.")
	s.Messages.AddUser("snapshot the front door")
	s.Messages.AddAssistant(nil, []schema.ToolCall{
		{ID: "call_a", Name: "camera_snapshot", Arguments: `{"camera":"front door"}`},
	}, nil)
	s.Messages.AddToolResult("call_a", "camera_snapshot", "An image was captured.")

	result := schema.NewToolResult(schema.NewTextPart("An image was captured."))
	blob.AddEntry(result, blob.CategoryImages, blob.Entry{
		Token:    "cedar-lark-opal-ridge",
		Value:    "data:image/jpeg;base64,AAAA",
		MimeType: "image/jpeg",
	})
	s.History.Append(schema.ToolCall{ID: "call_a", Name: "camera_snapshot"}, result)

	if err := m.Save(s); err != nil {
		t.Fatal(err)
	}
	m.Invalidate("telegram:42")

	loaded := m.GetOrCreate("telegram:42")
	if loaded == s {
		t.Fatal("expected a fresh load, got the cached session")
	}
	if loaded.Len() != 4 {
		t.Fatalf("loaded %d messages, want 4", loaded.Len())
	}

	asst := loaded.Messages.Messages[2]
	if len(asst.ToolCalls) != 1 {
		t.Fatalf("assistant message = %+v", asst)
	}
	if asst.ToolCalls[0].Arguments != `{"camera":"front door"}` {
		t.Errorf("arguments = %q, must survive as the raw string", asst.ToolCalls[0].Arguments)
	}

	// The reloaded history must still resolve minted tokens.
	v, err := loaded.History.Resolve("cedar-lark-opal-ridge", "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if v != "data:image/jpeg;base64,AAAA" {
		t.Errorf("resolved = %v", v)
	}
}

func TestManagerListSessions(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"cli:local", "telegram:1"} {
		s := m.GetOrCreate(key)
		s.Messages.AddUser("hi")
		if err := m.Save(s); err != nil {
			t.Fatal(err)
		}
	}
	list := m.ListSessions()
	if len(list) != 2 {
		t.Fatalf("ListSessions = %v", list)
	}
}

func TestSessionClear(t *testing.T) {
	s := newSession("cli:local")
	s.Messages.AddUser("hi")
	s.History.Append(schema.ToolCall{ID: "c"}, schema.NewToolResult())

	s.Clear()
	if s.Len() != 0 || s.History.Len() != 0 {
		t.Error("Clear must reset messages and tool history")
	}
}
