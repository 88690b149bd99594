package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/tools"
)

// interruptedNote replaces a streamed response the user cut off, so the
// transcript stays honest about what the model never finished saying.
const interruptedNote = "(response interrupted by the user)"

// defaultMaxIterations bounds the request→tool→request loop of one turn.
const defaultMaxIterations = 24

// MessageSource supplies pending user messages mid-turn. The session
// coordinator implements it over its input queue; Next returns nil (not an
// error) when nothing is queued.
type MessageSource interface {
	Next(ctx context.Context) ([]schema.Message, error)
}

// DeltaFunc receives streamed text fragments as they arrive. Returning false
// asks the driver to abandon the current response: the stream is cancelled,
// the partial text is replaced with an interruption note, and the turn
// continues with whatever the MessageSource supplies.
type DeltaFunc func(delta string) bool

// Driver runs one conversational turn as a state machine: stream a response,
// dispatch its tool calls in order, fold results back in, repeat until the
// model answers without calling tools.
type Driver struct {
	provider   schema.LLMProvider
	dispatcher *tools.Dispatcher
	history    *blob.History
	caps       schema.Capabilities
	opts       schema.ChatOptions

	// legacyFunctions mirrors the first tool call into the deprecated
	// function_call field for backends that predate the tools API.
	legacyFunctions bool
	maxIterations   int
}

type DriverOption func(*Driver)

// WithLegacyFunctions switches the driver to the deprecated single-call
// function_call protocol.
func WithLegacyFunctions() DriverOption {
	return func(d *Driver) { d.legacyFunctions = true }
}

// WithMaxIterations caps the tool loop of a single turn.
func WithMaxIterations(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.maxIterations = n
		}
	}
}

func NewDriver(provider schema.LLMProvider, dispatcher *tools.Dispatcher, history *blob.History, caps schema.Capabilities, opts schema.ChatOptions, dopts ...DriverOption) *Driver {
	d := &Driver{
		provider:      provider,
		dispatcher:    dispatcher,
		history:       history,
		caps:          caps,
		opts:          opts,
		maxIterations: defaultMaxIterations,
	}
	for _, o := range dopts {
		o(d)
	}
	return d
}

// RunTurn drives msgs to completion and returns the model's final text.
//
// Precondition per request: the last message must be user- or tool-authored.
// When it is not, the driver asks source for queued input; with none
// available the turn fails with ErrProtocolViolation.
//
// Tool calls are dispatched sequentially in the order the backend emitted
// them, each result appended before the next dispatch. msgs is mutated in
// place; on error it retains everything appended so far.
func (d *Driver) RunTurn(ctx context.Context, msgs *schema.Messages, defs []map[string]any, source MessageSource, onDelta DeltaFunc) (string, error) {
	for iter := 0; iter < d.maxIterations; iter++ {
		if err := d.ensureSendable(ctx, msgs, source); err != nil {
			return "", err
		}

		final, interrupted, err := d.streamOnce(ctx, msgs, defs, onDelta)
		if err != nil {
			return "", err
		}
		if interrupted {
			note := interruptedNote
			msgs.AddAssistant(&note, nil, nil)
			// Next iteration's precondition check pulls the queued input.
			continue
		}

		calls, err := normalizeCalls(final.ToolCalls)
		if err != nil {
			return "", err
		}

		stored := schema.NewAssistantMessage(final.Content, calls, final.ReasoningContent)
		if d.legacyFunctions && len(calls) > 0 {
			fc := calls[0]
			stored.FunctionCall = &fc
			stored.ToolCalls = nil
		}
		msgs.Add(stored)

		if len(calls) == 0 {
			if final.Content == nil {
				return "", nil
			}
			return *final.Content, nil
		}
		if d.legacyFunctions {
			// The legacy protocol carries a single call per response.
			calls = calls[:1]
		}

		for _, call := range calls {
			inv := d.dispatcher.Invoke(ctx, call)
			adapted, enriched, err := Adapt(inv, d.caps)
			if err != nil {
				return "", fmt.Errorf("adapt result of %s: %w", call.Name, err)
			}
			for _, m := range adapted {
				msgs.Add(m)
			}
			d.history.Append(call, enriched)
		}
	}
	return "", fmt.Errorf("turn exceeded %d tool iterations", d.maxIterations)
}

// ensureSendable enforces the role precondition, consuming queued input when
// the conversation currently ends on an assistant message.
func (d *Driver) ensureSendable(ctx context.Context, msgs *schema.Messages, source MessageSource) error {
	last := msgs.Last()
	if last != nil && (last.Role == "user" || last.Role == "tool") {
		return nil
	}
	if source != nil {
		queued, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if len(queued) > 0 {
			for _, m := range queued {
				msgs.Add(m)
			}
			return nil
		}
	}
	return schema.ErrProtocolViolation
}

// streamOnce issues one request and consumes the stream to its end.
// interrupted is true when onDelta asked to stop; the partial content is
// discarded by the caller.
func (d *Driver) streamOnce(ctx context.Context, msgs *schema.Messages, defs []map[string]any, onDelta DeltaFunc) (final *schema.LLMResponse, interrupted bool, err error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := d.provider.ChatStream(streamCtx, *msgs, defs, d.opts)
	if err != nil {
		return nil, false, fmt.Errorf("chat request: %w", err)
	}

	var streamErr error
	for ev := range events {
		switch {
		case ev.Err != nil:
			if streamErr == nil {
				streamErr = ev.Err
			}
		case ev.Delta != "":
			if onDelta != nil && !interrupted && !onDelta(ev.Delta) {
				interrupted = true
				cancel()
			}
		case ev.Final != nil:
			final = ev.Final
		}
	}

	if interrupted {
		slog.Debug("stream interrupted by delta callback")
		return nil, true, nil
	}
	if streamErr != nil {
		return nil, false, fmt.Errorf("chat stream: %w", streamErr)
	}
	if final == nil {
		return nil, false, fmt.Errorf("chat stream closed without a final response")
	}
	return final, false, nil
}

// normalizeCalls refuses non-function call types, drops calls without a name
// (malformed stream fragments) and rewrites empty argument strings to the
// canonical empty object.
func normalizeCalls(in []schema.ToolCall) ([]schema.ToolCall, error) {
	out := make([]schema.ToolCall, 0, len(in))
	for _, c := range in {
		if !c.IsFunction() {
			return nil, fmt.Errorf("unsupported tool call type %q (id %s)", c.Type, c.ID)
		}
		if c.Name == "" {
			slog.Warn("dropping tool call without a name", "id", c.ID)
			continue
		}
		if strings.TrimSpace(c.Arguments) == "" {
			c.Arguments = "{}"
		}
		out = append(out, c)
	}
	return out, nil
}
