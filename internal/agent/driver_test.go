package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hearthmind/hearthmind/internal/blob"
	"github.com/hearthmind/hearthmind/internal/schema"
	"github.com/hearthmind/hearthmind/internal/tools"
)

// scriptedProvider replays canned streams, one per ChatStream call, and
// records the message list of every request.
type scriptedProvider struct {
	scripts []scriptedStream
	calls   int
	seen    []schema.Messages
}

type scriptedStream struct {
	deltas []string
	final  *schema.LLMResponse
	err    error
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }

func (p *scriptedProvider) ChatStream(ctx context.Context, msgs schema.Messages, _ []map[string]any, _ schema.ChatOptions) (<-chan schema.StreamEvent, error) {
	if p.calls >= len(p.scripts) {
		return nil, errors.New("no scripted response left")
	}
	s := p.scripts[p.calls]
	p.calls++
	p.seen = append(p.seen, msgs.Clone())

	ch := make(chan schema.StreamEvent)
	go func() {
		defer close(ch)
		for _, d := range s.deltas {
			select {
			case <-ctx.Done():
				return
			case ch <- schema.StreamEvent{Delta: d}:
			}
		}
		if s.err != nil {
			ch <- schema.StreamEvent{Err: s.err}
			return
		}
		if s.final != nil {
			select {
			case <-ctx.Done():
			case ch <- schema.StreamEvent{Final: s.final}:
			}
		}
	}()
	return ch, nil
}

// recordingProvider is a ToolProvider that logs the order of calls.
type recordingProvider struct {
	order *[]string
}

func (r *recordingProvider) ListTools(context.Context) ([]schema.ToolDescriptor, error) {
	return []schema.ToolDescriptor{{Name: "set_light"}, {Name: "get_time"}}, nil
}

func (r *recordingProvider) CallTool(_ context.Context, callID, name string, _ map[string]any) (*schema.ToolResult, error) {
	*r.order = append(*r.order, callID)
	return schema.NewToolResult(schema.NewTextPart("done " + name)), nil
}

// queueSource pops one batch of queued messages per Next call.
type queueSource struct {
	batches [][]schema.Message
}

func (q *queueSource) Next(context.Context) ([]schema.Message, error) {
	if len(q.batches) == 0 {
		return nil, nil
	}
	b := q.batches[0]
	q.batches = q.batches[1:]
	return b, nil
}

func newTestDriver(t *testing.T, p *scriptedProvider, order *[]string, dopts ...DriverOption) (*Driver, *blob.History) {
	t.Helper()
	registry := tools.Aggregate(context.Background(), []schema.ToolProvider{&recordingProvider{order: order}})
	history := blob.NewHistory()
	d := NewDriver(p, tools.NewDispatcher(registry, history), history, schema.TextOnly(),
		schema.NewChatOptions("test-model", 0, 0), dopts...)
	return d, history
}

func strptr(s string) *string { return &s }

func userConversation(text string) schema.Messages {
	msgs := schema.NewMessages()
	msgs.AddSystem("You are a home assistant.")
	msgs.AddUser(text)
	return msgs
}

func TestRunTurnPlainAnswer(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{deltas: []string{"Hel", "lo"}, final: &schema.LLMResponse{Content: strptr("Hello"), FinishReason: "stop"}},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := userConversation("hi")
	var streamed strings.Builder
	answer, err := d.RunTurn(context.Background(), &msgs, nil, nil, func(delta string) bool {
		streamed.WriteString(delta)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Hello" {
		t.Errorf("answer = %q", answer)
	}
	if streamed.String() != "Hello" {
		t.Errorf("deltas = %q", streamed.String())
	}
	if last := msgs.Last(); last.Role != "assistant" || last.TextContent() != "Hello" {
		t.Errorf("last message = %+v", last)
	}
}

func TestRunTurnToolLoopOrdering(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{final: &schema.LLMResponse{ToolCalls: []schema.ToolCall{
			{ID: "call_a", Name: "set_light", Arguments: `{"light":"kitchen","on":true}`},
			{ID: "call_b", Name: "get_time", Arguments: "{}"},
		}, FinishReason: "tool_calls"}},
		{final: &schema.LLMResponse{Content: strptr("Kitchen is on, it is noon."), FinishReason: "stop"}},
	}}
	var order []string
	d, history := newTestDriver(t, p, &order)

	msgs := userConversation("turn on the kitchen light and tell me the time")
	answer, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Kitchen is on, it is noon." {
		t.Errorf("answer = %q", answer)
	}
	if len(order) != 2 || order[0] != "call_a" || order[1] != "call_b" {
		t.Fatalf("dispatch order = %v, want [call_a call_b]", order)
	}

	// system, user, assistant(calls), tool a, tool b, assistant(answer)
	roles := make([]string, 0, len(msgs.Messages))
	for _, m := range msgs.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "tool", "tool", "assistant"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
	if msgs.Messages[3].ToolCallID != "call_a" || msgs.Messages[4].ToolCallID != "call_b" {
		t.Error("tool results out of order")
	}

	// Both invocations must be in the blob history, in call order.
	if history.Len() != 2 {
		t.Fatalf("history len = %d", history.Len())
	}
	if history.Entries()[0].Call.ID != "call_a" {
		t.Error("history out of order")
	}

	// The second request must include the tool results.
	if len(p.seen) != 2 || len(p.seen[1].Messages) != 5 {
		t.Errorf("second request carried %d messages", len(p.seen[1].Messages))
	}
}

func TestRunTurnEmptyArgumentsNormalized(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{final: &schema.LLMResponse{ToolCalls: []schema.ToolCall{
			{ID: "call_a", Name: "get_time", Arguments: ""},
		}}},
		{final: &schema.LLMResponse{Content: strptr("noon")}},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := userConversation("time?")
	if _, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	stored := msgs.Messages[2]
	if len(stored.ToolCalls) != 1 || stored.ToolCalls[0].Arguments != "{}" {
		t.Fatalf("stored calls = %+v, want arguments {}", stored.ToolCalls)
	}
}

func TestRunTurnRejectsNonFunctionCall(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{final: &schema.LLMResponse{ToolCalls: []schema.ToolCall{
			{ID: "call_a", Type: "custom", Name: "run_script", Arguments: "{}"},
		}, FinishReason: "tool_calls"}},
	}}
	var order []string
	d, history := newTestDriver(t, p, &order)

	msgs := userConversation("run it")
	before := len(msgs.Messages)
	_, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil)
	if err == nil || !strings.Contains(err.Error(), `unsupported tool call type "custom"`) {
		t.Fatalf("err = %v", err)
	}
	if len(order) != 0 {
		t.Error("no dispatch may happen for a rejected call")
	}
	// The turn fails loudly instead of storing an assistant message with the
	// call silently stripped.
	if len(msgs.Messages) != before {
		t.Errorf("messages grew to %d on rejection", len(msgs.Messages))
	}
	if history.Len() != 0 {
		t.Error("history must stay empty")
	}
}

func TestRunTurnProtocolViolation(t *testing.T) {
	p := &scriptedProvider{}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := schema.NewMessages()
	msgs.AddAssistant(strptr("hello?"), nil, nil)

	_, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil)
	if !errors.Is(err, schema.ErrProtocolViolation) {
		t.Fatalf("err = %v, want ErrProtocolViolation", err)
	}
	if p.calls != 0 {
		t.Error("no request may be sent on a protocol violation")
	}
}

func TestRunTurnSourceSuppliesPendingInput(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{final: &schema.LLMResponse{Content: strptr("Sure.")}},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := schema.NewMessages()
	msgs.AddAssistant(strptr("anything else?"), nil, nil)
	source := &queueSource{batches: [][]schema.Message{
		{schema.NewUserMessage("yes, lights off")},
	}}

	answer, err := d.RunTurn(context.Background(), &msgs, nil, source, nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Sure." {
		t.Errorf("answer = %q", answer)
	}
	if msgs.Messages[1].Role != "user" {
		t.Errorf("queued message not appended: %+v", msgs.Messages)
	}
}

func TestRunTurnLegacyFunctionCall(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{final: &schema.LLMResponse{ToolCalls: []schema.ToolCall{
			{ID: "call_a", Name: "set_light", Arguments: `{"on":true}`},
			{ID: "call_b", Name: "get_time", Arguments: "{}"},
		}}},
		{final: &schema.LLMResponse{Content: strptr("done")}},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order, WithLegacyFunctions())

	msgs := userConversation("lights on")
	if _, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	stored := msgs.Messages[2]
	if stored.FunctionCall == nil || stored.FunctionCall.Name != "set_light" {
		t.Fatalf("FunctionCall = %+v", stored.FunctionCall)
	}
	if stored.ToolCalls != nil {
		t.Error("legacy message must not carry ToolCalls")
	}
	if len(order) != 1 || order[0] != "call_a" {
		t.Fatalf("dispatch order = %v, want only the first call", order)
	}
}

func TestRunTurnDeltaCancelReplacesResponse(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{deltas: []string{"Let me think", " about that at length"},
			final: &schema.LLMResponse{Content: strptr("never delivered")}},
		{final: &schema.LLMResponse{Content: strptr("Lights off.")}},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := userConversation("dim the lights")
	source := &queueSource{batches: [][]schema.Message{
		{schema.NewUserMessage("never mind, just turn them off")},
	}}

	answer, err := d.RunTurn(context.Background(), &msgs, nil, source, func(string) bool {
		return false // cancel on the first delta
	})
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Lights off." {
		t.Errorf("answer = %q", answer)
	}

	// system, user, assistant(interruption note), user(queued), assistant
	roles := make([]string, 0, len(msgs.Messages))
	for _, m := range msgs.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "user", "assistant"}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	if msgs.Messages[2].TextContent() != interruptedNote {
		t.Errorf("note = %q", msgs.Messages[2].TextContent())
	}
	if msgs.Messages[3].TextContent() != "never mind, just turn them off" {
		t.Errorf("queued = %q", msgs.Messages[3].TextContent())
	}
}

func TestRunTurnStreamError(t *testing.T) {
	p := &scriptedProvider{scripts: []scriptedStream{
		{deltas: []string{"par"}, err: errors.New("connection reset")},
	}}
	var order []string
	d, _ := newTestDriver(t, p, &order)

	msgs := userConversation("hi")
	_, err := d.RunTurn(context.Background(), &msgs, nil, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("err = %v", err)
	}
}
