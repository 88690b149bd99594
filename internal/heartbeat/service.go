// Package heartbeat runs the assistant against HEARTBEAT.md on a timer so the
// household can leave standing tasks ("water the plants reminder at 9") that
// get acted on without anyone typing a message.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunFunc executes one agent turn with the given prompt text.
type RunFunc func(ctx context.Context, prompt string) error

// Service periodically reads workspace/HEARTBEAT.md and, when it contains
// active tasks, hands them to the agent.
type Service struct {
	workspace string
	run       RunFunc
	interval  time.Duration
}

// NewService creates a heartbeat service. interval defaults to 30 minutes
// when zero.
func NewService(workspace string, run RunFunc, interval time.Duration) *Service {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Service{workspace: workspace, run: run, interval: interval}
}

// Start runs the heartbeat loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("heartbeat started", "interval", s.interval)
	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-ctx.Done():
			slog.Info("heartbeat stopped")
			return ctx.Err()
		}
	}
}

func (s *Service) check(ctx context.Context) {
	path := filepath.Join(s.workspace, "HEARTBEAT.md")
	data, err := os.ReadFile(path)
	if err != nil {
		// Missing file means no standing tasks.
		return
	}

	content := string(data)
	if !hasActiveTasks(content) {
		return
	}

	slog.Info("heartbeat found active tasks")
	if err := s.run(ctx, Prompt(content)); err != nil {
		slog.Error("heartbeat turn failed", "err", err)
	}
}

// Prompt wraps the HEARTBEAT.md content in the instruction the agent sees.
func Prompt(content string) string {
	return fmt.Sprintf("Periodic check. The household's standing task list follows. "+
		"Handle anything that is due now; if nothing is due, reply with a short note and stop.\n\n%s", content)
}

// hasActiveTasks reports whether the file has at least one line that is not
// blank, a comment, a heading, or an unchecked checkbox. Unchecked boxes are
// tasks waiting on a person, not on the assistant.
func hasActiveTasks(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "<!--"):
		case strings.HasPrefix(trimmed, "- [ ]"):
		case strings.HasPrefix(trimmed, "#"):
		default:
			return true
		}
	}
	return false
}
