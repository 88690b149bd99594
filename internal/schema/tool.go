package schema

import "context"

// ToolDescriptor declares one callable tool: its unique name, a description
// for the model, and a JSON-Schema-like parameter object.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// DefaultParameters is the canonical empty parameter schema filled in by the
// registry when a provider declares none, so every tool is introspectable.
func DefaultParameters() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"required":             []any{},
		"additionalProperties": false,
	}
}

// ToolProvider exposes a set of named callable tools plus their invocation
// logic. Device-control providers, web tools, the code evaluator and the
// remote MCP bridge all implement this; the core depends only on this
// contract, never on concrete variants.
//
// ListTools may fail; the registry drops a failing provider's tools without
// propagating the error. CallTool may fail; the dispatcher converts the error
// into an error-flagged ToolResult.
type ToolProvider interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, callID, name string, args map[string]any) (*ToolResult, error)
}
