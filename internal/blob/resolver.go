package blob

import (
	"encoding/json"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// HistoryEntry pairs a tool call with its (adapter-enriched) result.
type HistoryEntry struct {
	Call   schema.ToolCall
	Result *schema.ToolResult
}

// History is the per-session, chronological list of tool invocations.
// It is owned by exactly one session and read single-threaded, so it carries
// no locking.
type History struct {
	entries []HistoryEntry
}

func NewHistory() *History { return &History{} }

// Append records an invocation. Call order must match the order the backend
// issued the calls; resolution scans depend on it.
func (h *History) Append(call schema.ToolCall, result *schema.ToolResult) {
	h.entries = append(h.entries, HistoryEntry{Call: call, Result: result})
}

func (h *History) Entries() []HistoryEntry { return h.entries }

func (h *History) Len() int { return len(h.entries) }

// Resolve scans the history chronologically for token across the metadata
// category lists of every result. The scan never breaks early: when a token
// was reused (mutable resources), the LAST matching entry wins.
//
// Resources with mime type application/json are returned parsed when they
// parse; otherwise the raw text is returned. When requiredMime is non-empty
// and the winning entry's mime type differs, resolution fails with
// MimeTypeMismatchError. An absent token resolves to (nil, nil): the caller
// leaves the original token-bearing string untouched.
func (h *History) Resolve(token string, requiredMime string) (any, error) {
	var found *Entry
	for i := range h.entries {
		result := h.entries[i].Result
		if result == nil || result.Metadata == nil {
			continue
		}
		for _, category := range []string{CategoryImages, CategoryAudio, CategoryResources} {
			for _, e := range metaEntries(result.Metadata[category]) {
				if e.Token == token {
					e := e
					found = &e
				}
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	if requiredMime != "" && found.MimeType != requiredMime {
		return nil, &schema.MimeTypeMismatchError{Token: token, Want: requiredMime, Got: found.MimeType}
	}
	if found.MimeType == "application/json" {
		var parsed any
		if err := json.Unmarshal([]byte(found.Value), &parsed); err == nil {
			return parsed, nil
		}
	}
	return found.Value, nil
}

// AddEntry appends an entry to a result's metadata category list, allocating
// as needed. Used by the adapter when minting or reusing tokens.
func AddEntry(result *schema.ToolResult, category string, e Entry) {
	existing := metaEntries(result.Metadata[category])
	result.SetMeta(category, append(existing, e))
}

// metaEntries tolerates both the typed form ([]Entry, written by the adapter)
// and the generic form ([]any of maps, seen after a JSON round-trip through
// session persistence).
func metaEntries(v any) []Entry {
	switch list := v.(type) {
	case []Entry:
		return list
	case []any:
		out := make([]Entry, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			e := Entry{}
			e.Token, _ = m["token"].(string)
			e.Value, _ = m["src"].(string)
			e.MimeType, _ = m["mimeType"].(string)
			out = append(out, e)
		}
		return out
	}
	return nil
}
