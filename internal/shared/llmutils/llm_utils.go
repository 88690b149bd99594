// Package llmutils holds small helpers shared by the driver, dispatcher and
// channels.
package llmutils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n characters, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StripThink removes <think>…</think> blocks that some models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ToolHint generates a short narration string for a list of tool calls,
// e.g. `camera_snapshot("front door")`.
func ToolHint(tcs []schema.ToolCall) string {
	parts := make([]string, 0, len(tcs))
	for _, tc := range tcs {
		var firstVal string
		for _, v := range argsOf(tc) {
			if s, ok := v.(string); ok {
				firstVal = s
			}
			break
		}
		if firstVal == "" {
			parts = append(parts, tc.Name)
			continue
		}
		if len(firstVal) > 40 {
			firstVal = firstVal[:40] + "…"
		}
		parts = append(parts, fmt.Sprintf("%s(%q)", tc.Name, firstVal))
	}
	return strings.Join(parts, ", ")
}

func argsOf(tc schema.ToolCall) map[string]any {
	// Best-effort: arguments may still be partial while narrating.
	if tc.Arguments == "" {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(tc.Arguments), &out); err != nil {
		return nil
	}
	return out
}
