package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/shared/llmutils"
)

// Invocation is the outcome of dispatching one tool call. Substituted maps
// parameter name → blob token for every argument rewritten from a chat://
// reference; the adapter needs it to keep mutable-resource tokens stable.
type Invocation struct {
	Call        schema.ToolCall
	Result      *schema.ToolResult
	Substituted map[string]string
}

// Dispatcher resolves blob references in a tool call's arguments and invokes
// the owning provider. Every failure mode is contained here and converted to
// an error-flagged result: one bad tool call must never crash a conversation.
type Dispatcher struct {
	registry *Registry
	history  *blob.History
}

func NewDispatcher(registry *Registry, history *blob.History) *Dispatcher {
	return &Dispatcher{registry: registry, history: history}
}

// Invoke dispatches a single tool call.
//
// Argument rewriting is local to this dispatch: the returned Invocation
// carries the original call untouched, so the stored conversation history
// remains an accurate record of what the assistant actually requested.
func (d *Dispatcher) Invoke(ctx context.Context, call schema.ToolCall) *Invocation {
	inv := &Invocation{Call: call, Substituted: map[string]string{}}

	desc, provider, ok := d.registry.Lookup(call.Name)
	if !ok {
		inv.Result = schema.NewErrorResult((&schema.UnknownToolError{Name: call.Name}).Error())
		return inv
	}

	args := ParsePartialArgs(call.Arguments)

	if err := d.resolveReferences(desc, args, inv.Substituted); err != nil {
		// Mime mismatch is fatal for this call only; it surfaces as an
		// error result rather than escaping the dispatch boundary.
		inv.Result = schema.NewErrorResult(fmt.Sprintf("Error: %v", err))
		return inv
	}

	slog.Info("tool call", "name", call.Name, "args", llmutils.Truncate(call.Arguments, 200))

	result, err := provider.CallTool(ctx, call.ID, call.Name, args)
	if err != nil {
		inv.Result = schema.NewErrorResult(fmt.Sprintf("Tool %s failed: %v", call.Name, err))
		return inv
	}
	if result == nil {
		result = schema.NewToolResult(schema.NewTextPart("(no output)"))
	}
	inv.Result = result
	return inv
}

// resolveReferences rewrites chat://<token> values in place for every
// parameter the schema declares as a URI-formatted string. A token that
// resolves nowhere leaves the argument untouched; a mime type mismatch
// aborts the call.
func (d *Dispatcher) resolveReferences(desc schema.ToolDescriptor, args map[string]any, substituted map[string]string) error {
	props, _ := desc.Parameters["properties"].(map[string]any)
	for name, rawProp := range props {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := prop["type"].(string); t != "string" {
			continue
		}
		if f, _ := prop["format"].(string); f != "uri" {
			continue
		}
		val, ok := args[name].(string)
		if !ok {
			continue
		}
		token, ok := blob.TokenFromURI(val)
		if !ok {
			continue
		}
		mimeHint, _ := prop["mimeType"].(string)
		resolved, err := d.history.Resolve(token, mimeHint)
		if err != nil {
			var mismatch *schema.MimeTypeMismatchError
			if errors.As(err, &mismatch) {
				return err
			}
			return fmt.Errorf("resolve %s%s: %w", blob.Scheme, token, err)
		}
		if resolved == nil {
			continue
		}
		args[name] = resolved
		substituted[name] = token
	}
	return nil
}
