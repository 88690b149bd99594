package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/hearthmind/hearthmind/internal/schema"
)

// OpenAIProvider streams chat completions from any OpenAI-compatible
// endpoint over SSE, and handles the Anthropic Messages API as a special
// case. No SDK: the wire formats are small enough to speak directly.
type OpenAIProvider struct {
	apiKey       string
	apiBase      string
	defaultModel string
	extraHeaders map[string]string
	gateway      *ProviderSpec // non-nil for gateway/local providers
	spec         *ProviderSpec // non-nil for standard providers
	isAnthropic  bool

	// legacyFunctions switches the request to the deprecated
	// functions/function_call protocol for backends that predate tools.
	legacyFunctions bool

	httpClient *http.Client
}

// NewOpenAIProvider constructs a provider from raw config values.
// The caller extracts these from config.Config to avoid an import cycle.
func NewOpenAIProvider(
	apiKey, apiBase, defaultModel, providerName string,
	extraHeaders map[string]string,
	legacyFunctions bool,
) *OpenAIProvider {
	gateway := FindGateway(providerName, apiKey, apiBase)

	var spec *ProviderSpec
	if gateway == nil {
		spec = FindByModel(defaultModel)
		if spec == nil {
			spec = FindByName(providerName)
		}
	}

	effectiveBase := apiBase
	if effectiveBase == "" {
		if gateway != nil && gateway.DefaultAPIBase != "" {
			effectiveBase = gateway.DefaultAPIBase
		} else if spec != nil && spec.DefaultAPIBase != "" {
			effectiveBase = spec.DefaultAPIBase
		} else {
			effectiveBase = "https://api.openai.com/v1"
		}
	}
	effectiveBase = strings.TrimRight(effectiveBase, "/")

	isAnthropic := providerName == "anthropic" ||
		strings.Contains(strings.ToLower(effectiveBase), "anthropic.com")

	return &OpenAIProvider{
		apiKey:          apiKey,
		apiBase:         effectiveBase,
		defaultModel:    defaultModel,
		extraHeaders:    extraHeaders,
		gateway:         gateway,
		spec:            spec,
		isAnthropic:     isAnthropic,
		legacyFunctions: legacyFunctions,
		// No overall timeout: a stream stays open as long as tokens flow.
		// Cancellation is the caller's ctx.
		httpClient: &http.Client{},
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// ChatStream implements schema.LLMProvider.
func (p *OpenAIProvider) ChatStream(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	opts schema.ChatOptions,
) (<-chan schema.StreamEvent, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}
	origModel := model

	if p.supportsPromptCaching(origModel) {
		messages, tools = applyCacheControl(messages, tools)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	if p.isAnthropic {
		return p.streamAnthropic(ctx, messages, tools, p.resolveModel(model), maxTokens, opts.Temperature)
	}
	return p.streamOpenAI(ctx, messages, tools, p.resolveModel(model), maxTokens, opts.Temperature)
}

// ---------------------------------------------------------------------------
// OpenAI-compatible path
// ---------------------------------------------------------------------------

func (p *OpenAIProvider) streamOpenAI(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	model string,
	maxTokens int,
	temperature float64,
) (<-chan schema.StreamEvent, error) {
	body := map[string]any{
		"model":          model,
		"messages":       p.sanitizeMessages(messages),
		"max_tokens":     maxTokens,
		"temperature":    temperature,
		"stream":         true,
		"stream_options": map[string]any{"include_usage": true},
	}
	if len(tools) > 0 {
		if p.legacyFunctions {
			body["functions"] = legacyFunctionDefs(tools)
			body["function_call"] = "auto"
		} else {
			body["tools"] = tools
			body["tool_choice"] = "auto"
		}
	}
	p.applyModelOverrides(model, body)

	resp, err := p.post(ctx, p.apiBase+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	})
	if err != nil {
		return nil, err
	}

	events := make(chan schema.StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		consumeOpenAIStream(ctx, resp.Body, events)
	}()
	return events, nil
}

// openAIChunk is the subset of one SSE chunk we care about.
type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// toolAccum collects the fragments of one streamed tool call.
type toolAccum struct {
	id   string
	typ  string
	name string
	args strings.Builder
}

func consumeOpenAIStream(ctx context.Context, r io.Reader, events chan<- schema.StreamEvent) {
	var content, reasoning strings.Builder
	calls := map[int]*toolAccum{}
	finish := ""
	usage := map[string]int{}

	emit := func(ev schema.StreamEvent) bool {
		select {
		case <-ctx.Done():
			return false
		case events <- ev:
			return true
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk openAIChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keep-alives; a real protocol break surfaces as
			// a missing final response downstream.
			continue
		}
		if chunk.Usage != nil {
			usage["prompt_tokens"] = chunk.Usage.PromptTokens
			usage["completion_tokens"] = chunk.Usage.CompletionTokens
			usage["total_tokens"] = chunk.Usage.TotalTokens
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finish = choice.FinishReason
		}
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if !emit(schema.StreamEvent{Delta: choice.Delta.Content}) {
				return
			}
		}
		if choice.Delta.ReasoningContent != "" {
			reasoning.WriteString(choice.Delta.ReasoningContent)
		}
		for _, tc := range choice.Delta.ToolCalls {
			acc := calls[tc.Index]
			if acc == nil {
				acc = &toolAccum{}
				calls[tc.Index] = acc
			}
			if tc.ID != "" {
				acc.id = tc.ID
			}
			if tc.Type != "" {
				acc.typ = tc.Type
			}
			if tc.Function.Name != "" {
				acc.name += tc.Function.Name
			}
			acc.args.WriteString(tc.Function.Arguments)
		}
		if fc := choice.Delta.FunctionCall; fc != nil {
			acc := calls[0]
			if acc == nil {
				acc = &toolAccum{id: "fc_0"}
				calls[0] = acc
			}
			acc.name += fc.Name
			acc.args.WriteString(fc.Arguments)
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() == nil {
			emit(schema.StreamEvent{Err: fmt.Errorf("read stream: %w", err)})
		}
		return
	}

	final := &schema.LLMResponse{
		FinishReason:     finish,
		ToolCalls:        collectCalls(calls),
		Usage:            usage,
		Content:          nonEmpty(content.String()),
		ReasoningContent: nonEmpty(reasoning.String()),
	}
	if final.FinishReason == "" {
		final.FinishReason = "stop"
	}
	emit(schema.StreamEvent{Final: final})
}

// collectCalls flattens the accumulator map in stream index order.
func collectCalls(calls map[int]*toolAccum) []schema.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	idx := make([]int, 0, len(calls))
	for i := range calls {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]schema.ToolCall, 0, len(idx))
	for _, i := range idx {
		acc := calls[i]
		id := acc.id
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		out = append(out, schema.ToolCall{
			ID:        id,
			Type:      acc.typ,
			Name:      acc.name,
			Arguments: acc.args.String(),
		})
	}
	return out
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ---------------------------------------------------------------------------
// Request plumbing
// ---------------------------------------------------------------------------

// post sends the JSON body and verifies the response status. On a non-200 the
// body is drained for the error message and an error is returned; the stream
// never starts.
func (p *OpenAIProvider) post(ctx context.Context, url string, body map[string]any, auth map[string]string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range auth {
		req.Header.Set(k, v)
	}
	for k, v := range p.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, friendlyHTTPError(resp.StatusCode, raw))
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// Model resolution
// ---------------------------------------------------------------------------

// resolveModel strips routing prefixes from the model string so the provider
// API receives the bare model name it expects.
//
// Gateway providers (e.g. OpenRouter) keep the "provider/model" sub-prefix
// because the gateway needs it for routing; only the gateway's own prefix is
// stripped. AiHubMix (StripModelPrefix) strips down to the bare model name.
// Standard providers strip any recognised provider-name prefix.
func (p *OpenAIProvider) resolveModel(model string) string {
	if p.gateway != nil {
		if p.gateway.StripModelPrefix {
			if i := strings.LastIndex(model, "/"); i >= 0 {
				return model[i+1:]
			}
			return model
		}
		if pfx := p.gateway.LiteLLMPrefix; pfx != "" {
			full := pfx + "/"
			if strings.HasPrefix(strings.ToLower(model), full) {
				model = model[len(full):]
			}
		}
		return model
	}

	prefixesToStrip := []string{}
	if p.spec != nil {
		prefixesToStrip = append(prefixesToStrip, p.spec.LiteLLMPrefix, p.spec.Name)
	}
	for _, pfx := range prefixesToStrip {
		if pfx == "" {
			continue
		}
		full := pfx + "/"
		if strings.HasPrefix(strings.ToLower(model), full) {
			return model[len(full):]
		}
	}
	if strings.Contains(model, "/") {
		parts := strings.SplitN(model, "/", 2)
		norm := strings.ReplaceAll(strings.ToLower(parts[0]), "-", "_")
		if FindByName(norm) != nil {
			return parts[1]
		}
	}
	return model
}

// ---------------------------------------------------------------------------
// Prompt caching
// ---------------------------------------------------------------------------

func (p *OpenAIProvider) supportsPromptCaching(model string) bool {
	if p.gateway != nil {
		return p.gateway.SupportsPromptCaching
	}
	spec := FindByModel(model)
	return spec != nil && spec.SupportsPromptCaching
}

// applyCacheControl injects cache_control ephemeral blocks on the system
// messages and the last tool definition.
func applyCacheControl(messages schema.Messages, tools []map[string]any) (schema.Messages, []map[string]any) {
	out := schema.NewMessages()
	out.Messages = make([]schema.Message, len(messages.Messages))
	for i, msg := range messages.Messages {
		if msg.Role == "system" {
			newMsg := msg
			if c, ok := msg.Content.(string); ok {
				newMsg.Content = []any{
					map[string]any{"type": "text", "text": c, "cache_control": map[string]any{"type": "ephemeral"}},
				}
			}
			out.Messages[i] = newMsg
		} else {
			out.Messages[i] = msg
		}
	}

	if len(tools) == 0 {
		return out, tools
	}
	newTools := make([]map[string]any, len(tools))
	copy(newTools, tools)
	last := copyMap(newTools[len(newTools)-1])
	last["cache_control"] = map[string]any{"type": "ephemeral"}
	newTools[len(newTools)-1] = last
	return out, newTools
}

// ---------------------------------------------------------------------------
// Message sanitisation
// ---------------------------------------------------------------------------

// messageToWireMap converts a typed Message to the OpenAI wire-format map.
func (p *OpenAIProvider) messageToWireMap(m schema.Message) map[string]any {
	wire := map[string]any{
		"role":    m.Role,
		"content": wireContent(m.Content),
	}
	if m.Role == "assistant" {
		// Strict providers require "content" even for tool-call-only messages.
		if m.Content == nil {
			wire["content"] = nil
		}
		if len(m.ToolCalls) > 0 {
			raw := make([]map[string]any, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				raw[i] = tc.ToWireMap()
			}
			wire["tool_calls"] = raw
		}
		if m.FunctionCall != nil {
			wire["function_call"] = map[string]any{
				"name":      m.FunctionCall.Name,
				"arguments": m.FunctionCall.Arguments,
			}
		}
		if m.ReasoningContent != nil {
			wire["reasoning_content"] = *m.ReasoningContent
		}
	}
	if m.Role == "tool" {
		if p.legacyFunctions {
			wire["role"] = "function"
			wire["name"] = m.ToolName
		} else {
			wire["tool_call_id"] = m.ToolCallID
			wire["name"] = m.ToolName
		}
	}
	return wire
}

// wireContent maps typed content blocks to their wire representation; plain
// strings and pre-built block lists pass through.
func wireContent(content any) any {
	blocks, ok := content.([]schema.ContentBlock)
	if !ok {
		return content
	}
	out := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, map[string]any{"type": "text", "text": b.Text})
		case "image_url":
			out = append(out, map[string]any{"type": "image_url", "image_url": b.ImageURL})
		case "input_audio":
			out = append(out, map[string]any{"type": "input_audio", "input_audio": b.InputAudio})
		}
	}
	return out
}

func (p *OpenAIProvider) sanitizeMessages(messages schema.Messages) []map[string]any {
	out := make([]map[string]any, 0, len(messages.Messages))
	for _, m := range messages.Messages {
		out = append(out, p.messageToWireMap(m))
	}
	return out
}

// legacyFunctionDefs unwraps {"type":"function","function":{...}} wrappers
// into the flat schemas the deprecated functions field expects.
func legacyFunctionDefs(tools []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		if fn, ok := t["function"].(map[string]any); ok {
			out = append(out, fn)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Model overrides
// ---------------------------------------------------------------------------

func (p *OpenAIProvider) applyModelOverrides(model string, body map[string]any) {
	modelLower := strings.ToLower(model)
	spec := p.spec
	if spec == nil {
		spec = FindByModel(model)
	}
	if spec == nil {
		return
	}
	for _, ov := range spec.ModelOverrides {
		if strings.Contains(modelLower, strings.ToLower(ov.Pattern)) {
			for k, v := range ov.Overrides {
				body[k] = v
			}
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Utilities
// ---------------------------------------------------------------------------

func friendlyHTTPError(code int, body []byte) string {
	if code == 429 {
		return "rate limit exceeded"
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func anyToString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
