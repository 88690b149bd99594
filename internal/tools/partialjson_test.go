package tools

import (
	"reflect"
	"testing"
)

func TestParsePartialArgsComplete(t *testing.T) {
	got := ParsePartialArgs(`{"light": "kitchen", "on": true}`)
	want := map[string]any{"light": "kitchen", "on": true}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParsePartialArgsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		got := ParsePartialArgs(raw)
		if len(got) != 0 {
			t.Errorf("ParsePartialArgs(%q) = %v, want empty map", raw, got)
		}
	}
}

func TestParsePartialArgsTruncated(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "cut inside string value",
			raw:  `{"query": "weather in Am`,
			want: map[string]any{"query": "weather in Am"},
		},
		{
			name: "cut after colon",
			raw:  `{"light": "kitchen", "on":`,
			want: map[string]any{"light": "kitchen"},
		},
		{
			name: "cut after comma",
			raw:  `{"light": "kitchen",`,
			want: map[string]any{"light": "kitchen"},
		},
		{
			name: "cut inside key",
			raw:  `{"light": "kitchen", "o`,
			want: map[string]any{"light": "kitchen"},
		},
		{
			name: "cut inside nested array",
			raw:  `{"zones": ["kitchen", "hall`,
			want: map[string]any{"zones": []any{"kitchen", "hall"}},
		},
		{
			name: "cut after open brace",
			raw:  `{`,
			want: map[string]any{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePartialArgs(tc.raw)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParsePartialArgs(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestParsePartialArgsEscapedQuote(t *testing.T) {
	got := ParsePartialArgs(`{"text": "say \"hi`)
	want := map[string]any{"text": `say "hi`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParsePartialArgsGarbage(t *testing.T) {
	got := ParsePartialArgs("not json at all")
	if len(got) != 0 {
		t.Fatalf("garbage input should degrade to empty map, got %v", got)
	}
}
