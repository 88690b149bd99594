package session

import (
	"context"
	"sync"
	"time"

	"github.com/hearthmind/hearthmind/internal/agent"
	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
)

// Session holds one conversation: the message list sent to the model and the
// tool-invocation history that chat:// references resolve against.
type Session struct {
	Key       string
	Messages  schema.Messages
	History   *blob.History
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  map[string]any

	mu sync.Mutex
}

func newSession(key string) *Session {
	return &Session{
		Key:       key,
		Messages:  schema.NewMessages(),
		History:   blob.NewHistory(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Metadata:  map[string]any{},
	}
}

// Turn appends text as a user message and drives the conversation to
// completion. One turn at a time per session; concurrent callers serialise
// on the session lock.
func (s *Session) Turn(ctx context.Context, d *agent.Driver, defs []map[string]any, source agent.MessageSource, onDelta agent.DeltaFunc, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text != "" {
		s.Messages.AddUser(text)
	}
	answer, err := d.RunTurn(ctx, &s.Messages, defs, source, onDelta)
	s.UpdatedAt = time.Now()
	return answer, err
}

// EnsureSystem prepends the system prompt on a fresh session.
func (s *Session) EnsureSystem(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Messages.Messages) == 0 && prompt != "" {
		s.Messages.AddSystem(prompt)
	}
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Messages.Messages)
}

// Clear resets messages and tool history.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = schema.NewMessages()
	s.History = blob.NewHistory()
	s.UpdatedAt = time.Now()
}

// IdleSince reports the last activity timestamp.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// snapshot returns copies of the persistent state for Save.
func (s *Session) snapshot() (schema.Messages, []blob.HistoryEntry, map[string]any, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]blob.HistoryEntry, len(s.History.Entries()))
	copy(entries, s.History.Entries())
	return s.Messages.Clone(), entries, s.Metadata, s.CreatedAt
}
