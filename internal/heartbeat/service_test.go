package heartbeat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHasActiveTasks(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", false},
		{"heading only", "# HEARTBEAT\n", false},
		{"comment only", "<!-- nothing yet -->\n", false},
		{"unchecked boxes", "# HEARTBEAT\n- [ ] buy milk\n- [ ] call plumber\n", false},
		{"checked box", "# HEARTBEAT\n- [x] remind about trash day\n", true},
		{"plain text task", "Water the plants every morning.\n", true},
		{"mixed", "# HEARTBEAT\n<!-- note -->\n- [ ] later\nCheck the porch camera at dusk.\n", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasActiveTasks(tc.content); got != tc.want {
				t.Errorf("hasActiveTasks(%q) = %v, want %v", tc.content, got, tc.want)
			}
		})
	}
}

func TestCheckSkipsMissingFile(t *testing.T) {
	called := false
	s := NewService(t.TempDir(), func(ctx context.Context, prompt string) error {
		called = true
		return nil
	}, time.Minute)

	s.check(context.Background())
	if called {
		t.Error("run called with no HEARTBEAT.md present")
	}
}

func TestCheckRunsActiveTasks(t *testing.T) {
	ws := t.TempDir()
	content := "Check the thermostat schedule.\n"
	if err := os.WriteFile(filepath.Join(ws, "HEARTBEAT.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	var got string
	s := NewService(ws, func(ctx context.Context, prompt string) error {
		got = prompt
		return nil
	}, time.Minute)

	s.check(context.Background())
	if got == "" {
		t.Fatal("run not called")
	}
	if !strings.Contains(got, content) {
		t.Errorf("prompt missing task content: %q", got)
	}
	if !strings.Contains(got, "Periodic check") {
		t.Errorf("prompt missing instruction: %q", got)
	}
}

func TestNewServiceDefaultInterval(t *testing.T) {
	s := NewService("", nil, 0)
	if s.interval != 30*time.Minute {
		t.Errorf("interval = %v, want 30m", s.interval)
	}
}
