// Package session manages per-conversation state stored as JSONL files and
// the coordinator that multiplexes a byte-stream transport onto a session.
//
// File format:
//
//	Line 1:  {"_type":"metadata","key":"…","created_at":"…","updated_at":"…",
//	           "metadata":{…}}
//	Line 2+: one JSON object per line; messages carry "role", tool-history
//	          records carry "_type":"tool_record"
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
)

// Manager loads and persists sessions as JSONL files.
type Manager struct {
	sessionsDir string   // workspace/sessions/
	cache       sync.Map // key → *Session
}

// NewManager creates a Manager rooted at the workspace directory.
// It creates the sessions subdirectory if necessary.
func NewManager(workspace string) (*Manager, error) {
	dir := filepath.Join(workspace, "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Manager{sessionsDir: dir}, nil
}

// GetOrCreate returns the cached session for key, loading from disk if
// needed, or creating an empty new one.
func (m *Manager) GetOrCreate(key string) *Session {
	if v, ok := m.cache.Load(key); ok {
		return v.(*Session)
	}
	s := m.load(key)
	if s == nil {
		s = newSession(key)
	}
	actual, _ := m.cache.LoadOrStore(key, s)
	return actual.(*Session)
}

// Save writes the session to disk and updates the cache.
func (m *Manager) Save(s *Session) error {
	path := m.sessionPath(s.Key)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	msgs, records, metadata, createdAt := s.snapshot()
	meta := map[string]any{
		"_type":      "metadata",
		"key":        s.Key,
		"created_at": createdAt.UTC().Format(time.RFC3339),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
		"metadata":   metadata,
	}
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	for _, msg := range msgs.Messages {
		if err := enc.Encode(messageToWire(msg)); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}
	for _, rec := range records {
		if err := enc.Encode(recordToWire(rec)); err != nil {
			return fmt.Errorf("encode tool record: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	m.cache.Store(s.Key, s)
	return nil
}

// Invalidate removes a session from the in-memory cache (used after /new).
func (m *Manager) Invalidate(key string) {
	m.cache.Delete(key)
}

// StartSweep registers an idle sweep on c: cached sessions untouched for
// longer than idle are saved and evicted. Returns the entry id for removal.
func (m *Manager) StartSweep(c *cron.Cron, every string, idle time.Duration) (cron.EntryID, error) {
	return c.AddFunc(every, func() {
		cutoff := time.Now().Add(-idle)
		m.cache.Range(func(k, v any) bool {
			s := v.(*Session)
			if s.IdleSince().After(cutoff) {
				return true
			}
			if err := m.Save(s); err != nil {
				slog.Warn("sweep: save failed", "key", s.Key, "err", err)
				return true
			}
			m.cache.Delete(k)
			slog.Debug("sweep: evicted idle session", "key", s.Key)
			return true
		})
	})
}

// ListSessions returns metadata for all sessions, sorted newest-first.
func (m *Manager) ListSessions() []map[string]any {
	entries, _ := filepath.Glob(filepath.Join(m.sessionsDir, "*.jsonl"))
	var out []map[string]any

	for _, path := range entries {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		if scanner.Scan() {
			var data map[string]any
			if json.Unmarshal(scanner.Bytes(), &data) == nil &&
				data["_type"] == "metadata" {
				key, _ := data["key"].(string)
				if key == "" {
					base := filepath.Base(path)
					key = strings.TrimSuffix(base, ".jsonl")
					key = strings.Replace(key, "_", ":", 1)
				}
				out = append(out, map[string]any{
					"key":        key,
					"created_at": data["created_at"],
					"updated_at": data["updated_at"],
					"path":       path,
				})
			}
		}
		f.Close()
	}

	// Newest-first by updated_at string (ISO format sorts lexicographically).
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			ai, _ := out[i]["updated_at"].(string)
			aj, _ := out[j]["updated_at"].(string)
			if aj > ai {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Wire format helpers

// wireMessage is the on-disk JSON representation of a message.
type wireMessage struct {
	Role             string           `json:"role"`
	Content          any              `json:"content"`
	ToolCalls        []map[string]any `json:"tool_calls,omitempty"`
	FunctionCall     map[string]any   `json:"function_call,omitempty"`
	ToolCallID       string           `json:"tool_call_id,omitempty"`
	Name             string           `json:"name,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	Timestamp        string           `json:"timestamp"`
}

func messageToWire(msg schema.Message) wireMessage {
	w := wireMessage{
		Role:      msg.Role,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	switch v := msg.Content.(type) {
	case string:
		w.Content = v
	case *string:
		if v != nil {
			w.Content = *v
		}
	default:
		w.Content = msg.Content
	}

	if msg.ReasoningContent != nil {
		w.ReasoningContent = *msg.ReasoningContent
	}
	for _, tc := range msg.ToolCalls {
		w.ToolCalls = append(w.ToolCalls, tc.ToWireMap())
	}
	if msg.FunctionCall != nil {
		w.FunctionCall = map[string]any{
			"name":      msg.FunctionCall.Name,
			"arguments": msg.FunctionCall.Arguments,
		}
	}
	w.ToolCallID = msg.ToolCallID
	w.Name = msg.ToolName
	return w
}

func wireToMessage(data map[string]any) schema.Message {
	role, _ := data["role"].(string)
	content := data["content"]
	if content == nil {
		content = ""
	}

	msg := schema.Message{
		Role:    role,
		Content: content,
	}

	if tcs, ok := data["tool_calls"].([]any); ok {
		for _, tc := range tcs {
			tcm, ok := tc.(map[string]any)
			if !ok {
				continue
			}
			msg.ToolCalls = append(msg.ToolCalls, wireToCall(tcm))
		}
	}
	if fc, ok := data["function_call"].(map[string]any); ok {
		name, _ := fc["name"].(string)
		args, _ := fc["arguments"].(string)
		msg.FunctionCall = &schema.ToolCall{Name: name, Arguments: args}
	}
	if id, ok := data["tool_call_id"].(string); ok {
		msg.ToolCallID = id
	}
	if name, ok := data["name"].(string); ok {
		msg.ToolName = name
	}
	if rc, ok := data["reasoning_content"].(string); ok && rc != "" {
		msg.ReasoningContent = &rc
	}
	return msg
}

func wireToCall(tcm map[string]any) schema.ToolCall {
	fn, _ := tcm["function"].(map[string]any)
	id, _ := tcm["id"].(string)
	name, _ := fn["name"].(string)
	args, _ := fn["arguments"].(string)
	return schema.ToolCall{ID: id, Name: name, Arguments: args}
}

// recordToWire serialises one tool-history entry. The result's metadata is
// what later Resolve calls scan, so it must round-trip.
func recordToWire(rec blob.HistoryEntry) map[string]any {
	return map[string]any{
		"_type":  "tool_record",
		"call":   rec.Call.ToWireMap(),
		"result": rec.Result,
	}
}

func wireToRecord(data map[string]any) (blob.HistoryEntry, bool) {
	callMap, _ := data["call"].(map[string]any)
	if callMap == nil {
		return blob.HistoryEntry{}, false
	}
	rec := blob.HistoryEntry{Call: wireToCall(callMap)}

	raw, err := json.Marshal(data["result"])
	if err != nil {
		return blob.HistoryEntry{}, false
	}
	var result schema.ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return blob.HistoryEntry{}, false
	}
	rec.Result = &result
	return rec, true
}

// ---------------------------------------------------------------------------
// Internal helpers

// sessionPath converts a session key to its JSONL file path.
func (m *Manager) sessionPath(key string) string {
	name := safeFilename(strings.ReplaceAll(key, ":", "_"))
	return filepath.Join(m.sessionsDir, name+".jsonl")
}

// safeFilename replaces filesystem-unsafe characters with underscores.
func safeFilename(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafe, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// load reads a session from disk; nil when absent or unreadable.
func (m *Manager) load(key string) *Session {
	path := m.sessionPath(key)

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	s := newSession(key)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20) // 1 MB per line
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var data map[string]any
		if err := json.Unmarshal(line, &data); err != nil {
			slog.Warn("skipping malformed session line", "key", key, "err", err)
			continue
		}

		switch data["_type"] {
		case "metadata":
			if m2, ok := data["metadata"].(map[string]any); ok {
				s.Metadata = m2
			}
			if ts, ok := data["created_at"].(string); ok {
				if t, err := time.Parse(time.RFC3339, ts); err == nil {
					s.CreatedAt = t
				}
			}
		case "tool_record":
			if rec, ok := wireToRecord(data); ok {
				s.History.Append(rec.Call, rec.Result)
			}
		default:
			s.Messages.Add(wireToMessage(data))
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("error reading session file", "key", key, "err", err)
		return nil
	}
	return s
}
