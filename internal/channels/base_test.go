package channels

import (
	"strings"
	"testing"

	"github.com/hearthmind/hearthmind/internal/schema"
)

func TestIsAllowedEmptyListAllowsAll(t *testing.T) {
	b := NewBase("test", nil, schema.TextOnly(), nil)
	if !b.IsAllowed("anyone") {
		t.Fatal("empty allowlist should allow everyone")
	}
}

func TestIsAllowedMatchesIDOrUsername(t *testing.T) {
	b := NewBase("test", nil, schema.TextOnly(), []string{"12345", "alice"})

	cases := []struct {
		sender string
		want   bool
	}{
		{"12345", true},
		{"12345|bob", true},
		{"99999|alice", true},
		{"99999|bob", false},
		{"alice", true},
		{"", false},
	}
	for _, tc := range cases {
		if got := b.IsAllowed(tc.sender); got != tc.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tc.sender, got, tc.want)
		}
	}
}

func TestSplitMessageShortPassthrough(t *testing.T) {
	got := splitMessage("hello", 100)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %v", got)
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	content := "first line\nsecond line\nthird line"
	chunks := splitMessage(content, 25)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	for _, c := range chunks {
		if len(c) > 25 {
			t.Errorf("chunk too long: %q", c)
		}
	}
	if chunks[0] != "first line\nsecond line" {
		t.Errorf("first chunk = %q", chunks[0])
	}
}

func TestSplitMessageHardCut(t *testing.T) {
	content := strings.Repeat("x", 50)
	chunks := splitMessage(content, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if joined := strings.Join(chunks, ""); joined != content {
		t.Error("hard cut lost content")
	}
}

func TestMarkdownToTelegramHTML(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"**bold** text", "<b>bold</b> text"},
		{"a `code` span", "a <code>code</code> span"},
		{"# Title\nbody", "Title\nbody"},
		{"[link](https://example.com)", `<a href="https://example.com">link</a>`},
		{"- item one", "• item one"},
		{"a < b & c > d", "a &lt; b &amp; c &gt; d"},
	}
	for _, tc := range cases {
		if got := markdownToTelegramHTML(tc.in); got != tc.want {
			t.Errorf("markdownToTelegramHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMarkdownToTelegramHTMLCodeBlock(t *testing.T) {
	in := "```go\nif a < b {\n}\n```"
	got := markdownToTelegramHTML(in)
	if !strings.Contains(got, "<pre><code>") {
		t.Fatalf("missing pre/code wrapper: %q", got)
	}
	if !strings.Contains(got, "a &lt; b") {
		t.Errorf("code block not escaped: %q", got)
	}
}
