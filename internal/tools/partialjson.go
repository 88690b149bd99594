package tools

import (
	"encoding/json"
	"strings"
)

// ParsePartialArgs parses a tool-call argument string permissively. Streaming
// backends can hand over arguments cut at any byte, so this returns whatever
// structurally valid prefix can be recovered. Total parse failure degrades to
// an empty object — argument problems are never fatal to a call.
func ParsePartialArgs(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil && out != nil {
		return out
	}

	if repaired, ok := completeJSON(raw); ok {
		if err := json.Unmarshal([]byte(repaired), &out); err == nil && out != nil {
			return out
		}
	}

	// Last resort: the longest prefix ending at a closing brace.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil && out != nil {
			return out
		}
	}

	return map[string]any{}
}

// completeJSON structurally closes a truncated JSON document: it terminates
// an open string, drops a dangling key or separator, and closes every open
// brace/bracket. Returns ok=false when the input is not even a JSON prefix.
func completeJSON(raw string) (string, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
		}
	}

	s := raw
	if inString {
		if escaped {
			s = s[:len(s)-1] // drop the lone backslash
		}
		s += `"`
	}

	var container byte
	if len(stack) > 0 {
		container = stack[len(stack)-1]
	}
	s = trimDangling(s, container)

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s, true
}

// trimDangling removes a trailing comma, a key left without a value
// ("...,\"key\":" or "{\"key\":"), or — inside an object — a closed string
// that never got its colon, so the closers produce valid JSON. container is
// the innermost open bracket ('{', '[', or 0 for balanced input).
func trimDangling(s string, container byte) string {
	for {
		t := strings.TrimRight(s, " \t\n\r")
		switch {
		case strings.HasSuffix(t, ","):
			s = t[:len(t)-1]
			continue
		case strings.HasSuffix(t, ":"):
			// Drop the preceding key string and any comma before it.
			body := strings.TrimRight(t[:len(t)-1], " \t\n\r")
			if start, ok := stringStart(body); ok {
				body = strings.TrimRight(body[:start], " \t\n\r")
				body = strings.TrimSuffix(body, ",")
				s = body
				continue
			}
			s = body
			continue
		case container == '{' && strings.HasSuffix(t, `"`):
			// A string directly inside an object is a value only when a
			// colon precedes it; otherwise it is a truncated key.
			start, ok := stringStart(t)
			if !ok {
				return t
			}
			before := strings.TrimRight(t[:start], " \t\n\r")
			if strings.HasSuffix(before, ":") {
				return t
			}
			s = strings.TrimSuffix(before, ",")
			continue
		}
		return t
	}
}

// stringStart finds the opening quote of a JSON string that ends at the end
// of s, honouring escapes.
func stringStart(s string) (int, bool) {
	if !strings.HasSuffix(s, `"`) {
		return 0, false
	}
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		// Count preceding backslashes to skip escaped quotes.
		n := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			n++
		}
		if n%2 == 0 {
			return i, true
		}
	}
	return 0, false
}
