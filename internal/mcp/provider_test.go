package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// rpcServer answers tools/list and tools/call over HTTP.
func rpcServer(t *testing.T, callResult map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		var result any
		switch req["method"] {
		case "tools/list":
			result = map[string]any{
				"tools": []map[string]any{
					{
						"name":        "lookup",
						"description": "Look something up",
						"inputSchema": map[string]any{
							"type":       "object",
							"properties": map[string]any{"q": map[string]any{"type": "string"}},
						},
					},
					{"name": "ping"},
				},
			}
		case "tools/call":
			result = callResult
		default:
			result = map[string]any{}
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req["id"], "result": result}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestProviderListsPrefixedTools(t *testing.T) {
	srv := rpcServer(t, nil)
	defer srv.Close()

	p := NewProvider(map[string]ServerConfig{"kb": {URL: srv.URL}})
	defs, err := p.ListTools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
	}
	if !names["mcp_kb_lookup"] || !names["mcp_kb_ping"] {
		t.Errorf("unexpected tool names: %v", names)
	}
}

func TestProviderCallMapsContentBlocks(t *testing.T) {
	srv := rpcServer(t, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": "found it"},
			{"type": "image", "mimeType": "image/png", "data": "QUJD"},
			{"type": "resource", "resource": map[string]any{
				"uri": "kb://doc/1", "mimeType": "text/plain", "text": "doc body",
			}},
		},
	})
	defer srv.Close()

	p := NewProvider(map[string]ServerConfig{"kb": {URL: srv.URL}})
	if _, err := p.ListTools(context.Background()); err != nil {
		t.Fatal(err)
	}

	result, err := p.CallTool(context.Background(), "call_1", "mcp_kb_lookup", map[string]any{"q": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Content) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(result.Content))
	}
	if result.Content[0].Type != schema.PartText || result.Content[0].Text != "found it" {
		t.Errorf("text part = %+v", result.Content[0])
	}
	if result.Content[1].Type != schema.PartImage || result.Content[1].Data != "QUJD" {
		t.Errorf("image part = %+v", result.Content[1])
	}
	if result.Content[2].Type != schema.PartResource || result.Content[2].Text != "doc body" {
		t.Errorf("resource part = %+v", result.Content[2])
	}
}

func TestProviderCallErrorFlag(t *testing.T) {
	srv := rpcServer(t, map[string]any{
		"isError": true,
		"content": []map[string]any{{"type": "text", "text": "tool blew up"}},
	})
	defer srv.Close()

	p := NewProvider(map[string]ServerConfig{"kb": {URL: srv.URL}})
	if _, err := p.ListTools(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := p.CallTool(context.Background(), "call_1", "mcp_kb_ping", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected IsError")
	}
}

func TestProviderUnknownTool(t *testing.T) {
	p := NewProvider(nil)
	if _, err := p.ListTools(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CallTool(context.Background(), "c", "mcp_missing_tool", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}
